package errors

import "errors"

// Domain errors
var (
	// Scan errors
	ErrEmptyDomain = errors.New("domain cannot be empty")

	// History errors
	ErrEntryNotFound   = errors.New("scan not found")
	ErrInvalidEntryID  = errors.New("invalid scan ID")
	ErrHistoryClosed   = errors.New("history store is closed")
	ErrEmptyHistoryDSN = errors.New("history path cannot be empty")

	// Repository errors
	ErrRepositoryOperation   = errors.New("repository operation failed")
	ErrSerializationFailed   = errors.New("serialization failed")
	ErrDeserializationFailed = errors.New("deserialization failed")

	// Output errors
	ErrInvalidFormat = errors.New("unsupported output format")
	ErrReportFailed  = errors.New("report generation failed")

	// Validation errors
	ErrInvalidInput = errors.New("invalid input")
)
