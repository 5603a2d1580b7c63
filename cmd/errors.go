package cmd

import (
	"fmt"

	sharederrors "github.com/khanhnv2901/cyberaudit/internal/shared/errors"
)

// ScanNotFoundError indicates a history lookup failure.
type ScanNotFoundError struct {
	ID string
}

func (e *ScanNotFoundError) Error() string {
	return fmt.Sprintf("scan %s not found in history", e.ID)
}

func (e *ScanNotFoundError) Unwrap() error {
	return sharederrors.ErrEntryNotFound
}

// UnsupportedFormatError signals an unknown --format value.
type UnsupportedFormatError struct {
	Format  string
	Allowed []string
}

func (e *UnsupportedFormatError) Error() string {
	if len(e.Allowed) == 0 {
		return fmt.Sprintf("unsupported format %q", e.Format)
	}
	return fmt.Sprintf("unsupported format %q (expected one of %v)", e.Format, e.Allowed)
}

func (e *UnsupportedFormatError) Unwrap() error {
	return sharederrors.ErrInvalidFormat
}
