// Package history keeps a record of completed scans.
package history

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/khanhnv2901/cyberaudit/internal/checker"
	sharedErrors "github.com/khanhnv2901/cyberaudit/internal/shared/errors"
)

// Entry is a stored scan.
type Entry struct {
	ID         string             `json:"id" yaml:"id"`
	RecordedAt time.Time          `json:"recorded_at" yaml:"recorded_at"`
	Result     checker.ScanResult `json:"result" yaml:"result"`
}

// Repository defines the interface for scan history persistence
type Repository interface {
	// Append stores a scan result under a fresh ID
	Append(ctx context.Context, result checker.ScanResult) (Entry, error)

	// List returns at most limit entries, newest first. A limit <= 0 returns everything.
	List(ctx context.Context, limit int) ([]Entry, error)

	// Get retrieves an entry by its ID
	Get(ctx context.Context, id string) (Entry, error)

	// Close releases resources held by the store
	Close() error
}

// NewEntry assigns an ID and recording time to a result.
func NewEntry(result checker.ScanResult, now time.Time) Entry {
	return Entry{
		ID:         uuid.NewString(),
		RecordedAt: now.UTC(),
		Result:     result,
	}
}

// ValidateID rejects identifiers that are not UUIDs.
func ValidateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return sharedErrors.ErrInvalidEntryID
	}
	return nil
}
