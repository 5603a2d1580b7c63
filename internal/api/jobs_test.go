package api

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewJobManager(t *testing.T) {
	jm := NewJobManager()
	defer jm.Close()
	if jm.maxJobs != 1000 {
		t.Errorf("expected maxJobs 1000, got %d", jm.maxJobs)
	}
	if jm.jobs == nil || jm.subscribers == nil {
		t.Error("expected maps to be initialized")
	}
}

func TestJobManager_CreateJob(t *testing.T) {
	jm := NewJobManager()
	defer jm.Close()

	job := jm.CreateJob("example.com")
	if job.Domain != "example.com" {
		t.Errorf("expected domain example.com, got %s", job.Domain)
	}
	if job.Status != JobPending {
		t.Errorf("expected status pending, got %s", job.Status)
	}
	if _, err := uuid.Parse(job.ID); err != nil {
		t.Errorf("expected UUID job ID, got %q", job.ID)
	}

	retrieved := jm.GetJob(job.ID)
	if retrieved == nil || retrieved.ID != job.ID {
		t.Fatalf("expected to retrieve created job, got %+v", retrieved)
	}
	if retrieved == job {
		t.Error("GetJob should return a copy, not the same pointer")
	}
}

func TestJobManager_UpdateUnknown(t *testing.T) {
	jm := NewJobManager()
	defer jm.Close()
	if got := jm.UpdateJob("missing", func(j *Job) { j.Status = JobDone }); got != nil {
		t.Errorf("expected nil for unknown job, got %+v", got)
	}
}

func TestJobManager_ListJobs(t *testing.T) {
	jm := NewJobManager()
	defer jm.Close()

	if jobs := jm.ListJobs(10); len(jobs) != 0 {
		t.Errorf("expected 0 jobs, got %d", len(jobs))
	}

	jm.CreateJob("one.example")
	time.Sleep(10 * time.Millisecond)
	jm.CreateJob("two.example")
	time.Sleep(10 * time.Millisecond)
	third := jm.CreateJob("three.example")

	jobs := jm.ListJobs(10)
	if len(jobs) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(jobs))
	}
	if jobs[0].ID != third.ID {
		t.Errorf("expected newest job first, got %s", jobs[0].Domain)
	}

	if jobs := jm.ListJobs(2); len(jobs) != 2 {
		t.Errorf("expected limit to return 2 jobs, got %d", len(jobs))
	}
}

func TestJobManager_Subscribe(t *testing.T) {
	jm := NewJobManager()
	defer jm.Close()

	ch, unsubscribe := jm.Subscribe()

	jm.CreateJob("example.com")
	select {
	case job := <-ch:
		if job.Domain != "example.com" {
			t.Errorf("expected domain example.com, got %s", job.Domain)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for job notification")
	}

	unsubscribe()
	jm.CreateJob("other.example")

	if _, ok := <-ch; ok {
		t.Error("channel should be closed after unsubscribe")
	}

	// A second unsubscribe is a no-op.
	unsubscribe()
}

func TestJobManager_Broadcast(t *testing.T) {
	jm := NewJobManager()
	defer jm.Close()

	ch1, unsub1 := jm.Subscribe()
	ch2, unsub2 := jm.Subscribe()
	defer unsub1()
	defer unsub2()

	jm.CreateJob("example.com")

	for i, ch := range []chan Job{ch1, ch2} {
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Errorf("subscriber %d should have received notification", i+1)
		}
	}
}

func TestJobManager_SlowSubscriberDoesNotBlock(t *testing.T) {
	jm := NewJobManager()
	defer jm.Close()

	_, unsub := jm.Subscribe()
	defer unsub()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			jm.CreateJob("example.com")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("CreateJob blocked on a full subscriber channel")
	}
}

func TestJobManager_Close(t *testing.T) {
	jm := NewJobManager()
	ch, _ := jm.Subscribe()

	jm.Close()
	jm.Close()

	if _, ok := <-ch; ok {
		t.Error("subscriber channel should be closed")
	}
}

func TestJobManager_SubscribeAfterClose(t *testing.T) {
	jm := NewJobManager()
	jm.Close()

	ch, cancel := jm.Subscribe()
	defer cancel()

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected a closed channel after Close")
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber channel was never closed")
	}

	jm.mu.RLock()
	defer jm.mu.RUnlock()
	if len(jm.subscribers) != 0 {
		t.Errorf("expected no registered subscribers, got %d", len(jm.subscribers))
	}
}

func TestJobManager_Prune(t *testing.T) {
	jm := NewJobManager()
	defer jm.Close()
	jm.SetMaxJobs(2)

	var ids []string
	for i := 0; i < 4; i++ {
		job := jm.CreateJob("example.com")
		ids = append(ids, job.ID)
	}
	finished := time.Now()
	for _, id := range ids[:3] {
		jm.UpdateJob(id, func(j *Job) {
			j.Status = JobDone
			j.FinishedAt = &finished
		})
	}

	jm.prune()

	if got := len(jm.ListJobs(0)); got != 2 {
		t.Fatalf("expected 2 jobs after prune, got %d", got)
	}
	if jm.GetJob(ids[3]) == nil {
		t.Error("pending job must never be pruned")
	}
}

func TestJobManager_SetMaxJobs(t *testing.T) {
	jm := NewJobManager()
	defer jm.Close()

	jm.SetMaxJobs(500)
	if jm.maxJobs != 500 {
		t.Errorf("expected maxJobs 500, got %d", jm.maxJobs)
	}
	jm.SetMaxJobs(0)
	if jm.maxJobs != 500 {
		t.Errorf("SetMaxJobs(0) should be ignored, got %d", jm.maxJobs)
	}
}

func TestJobManager_ConcurrentAccess(t *testing.T) {
	jm := NewJobManager()
	defer jm.Close()

	var wg sync.WaitGroup
	numRoutines := 10
	jobsPerRoutine := 10

	wg.Add(numRoutines)
	for i := 0; i < numRoutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < jobsPerRoutine; j++ {
				jm.CreateJob("example.com")
				jm.ListJobs(10)
			}
		}()
	}
	wg.Wait()

	if got := len(jm.ListJobs(0)); got != numRoutines*jobsPerRoutine {
		t.Errorf("expected %d jobs, got %d", numRoutines*jobsPerRoutine, got)
	}
}
