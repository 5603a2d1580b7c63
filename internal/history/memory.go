package history

import (
	"context"
	"sync"
	"time"

	"github.com/khanhnv2901/cyberaudit/internal/checker"
	sharedErrors "github.com/khanhnv2901/cyberaudit/internal/shared/errors"
)

// MemoryRepository keeps entries in process memory.
type MemoryRepository struct {
	mu      sync.RWMutex
	entries []Entry
	index   map[string]int
	closed  bool
	now     func() time.Time
}

var _ Repository = (*MemoryRepository)(nil)

// NewMemoryRepository creates an empty in-memory store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		index: make(map[string]int),
		now:   time.Now,
	}
}

func (r *MemoryRepository) Append(ctx context.Context, result checker.ScanResult) (Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return Entry{}, sharedErrors.ErrHistoryClosed
	}

	entry := NewEntry(result, r.now())
	r.index[entry.ID] = len(r.entries)
	r.entries = append(r.entries, entry)
	return entry, nil
}

func (r *MemoryRepository) List(ctx context.Context, limit int) ([]Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return nil, sharedErrors.ErrHistoryClosed
	}

	n := len(r.entries)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Entry, 0, n)
	for i := len(r.entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, r.entries[i])
	}
	return out, nil
}

func (r *MemoryRepository) Get(ctx context.Context, id string) (Entry, error) {
	if err := ValidateID(id); err != nil {
		return Entry{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return Entry{}, sharedErrors.ErrHistoryClosed
	}

	idx, ok := r.index[id]
	if !ok {
		return Entry{}, sharedErrors.ErrEntryNotFound
	}
	return r.entries[idx], nil
}

func (r *MemoryRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}
