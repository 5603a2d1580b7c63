package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

const progressTick = 300 * time.Millisecond

// progressPrinter redraws a single status line while a batch of scans runs.
// Increment is safe for concurrent use by the runner's workers.
type progressPrinter struct {
	out      io.Writer
	total    int
	name     string
	mu       sync.Mutex
	passed   int
	failed   int
	seconds  float64
	updates  chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func newProgressPrinter(total int, name string) *progressPrinter {
	if total <= 0 {
		total = 1
	}
	return &progressPrinter{
		out:     os.Stdout,
		total:   total,
		name:    name,
		updates: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

func (p *progressPrinter) Start() {
	go p.loop()
}

// Increment records one finished scan. passed is true for a score of 50 or more.
func (p *progressPrinter) Increment(passed bool, seconds float64) {
	p.mu.Lock()
	if passed {
		p.passed++
	} else {
		p.failed++
	}
	p.seconds += seconds
	p.mu.Unlock()

	select {
	case p.updates <- struct{}{}:
	default:
	}
}

func (p *progressPrinter) Stop() {
	p.stopOnce.Do(func() {
		close(p.done)
	})
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "\r%s\r", strings.Repeat(" ", 80))
	fmt.Fprintln(p.out, p.lineLocked())
}

func (p *progressPrinter) loop() {
	ticker := time.NewTicker(progressTick)
	defer ticker.Stop()

	for {
		select {
		case <-p.updates:
			p.print()
		case <-ticker.C:
			p.print()
		case <-p.done:
			return
		}
	}
}

func (p *progressPrinter) print() {
	p.mu.Lock()
	defer p.mu.Unlock()
	select {
	case <-p.done:
		return
	default:
	}
	fmt.Fprintf(p.out, "\r%s", p.lineLocked())
}

func (p *progressPrinter) lineLocked() string {
	completed := p.passed + p.failed
	total := p.total
	if completed > total {
		total = completed
	}

	percent := (float64(completed) / float64(total)) * 100
	avg := 0.0
	if completed > 0 {
		avg = p.seconds / float64(completed)
	}

	return fmt.Sprintf("[%s] %d/%d (%.1f%%) passing:%d critical:%d avg:%.2fs",
		p.name, completed, total, percent, p.passed, p.failed, avg)
}
