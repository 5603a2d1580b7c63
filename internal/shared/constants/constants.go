package constants

import (
	"io/fs"
	"time"
)

const (
	// DefaultDirPerm is the default permission used when creating directories.
	DefaultDirPerm fs.FileMode = 0o755
	// DefaultFilePerm is the default permission used when creating files.
	DefaultFilePerm fs.FileMode = 0o644
)

const (
	// TLSProbeTimeout bounds the dial and handshake of the certificate probe.
	TLSProbeTimeout = 3 * time.Second
	// PortProbeTimeout bounds each individual TCP connect.
	PortProbeTimeout = 500 * time.Millisecond
	// HTTPProbeTimeout bounds the whole header probe request.
	HTTPProbeTimeout = 3 * time.Second
	// DNSProbeTimeout bounds the DMARC TXT query.
	DNSProbeTimeout = 5 * time.Second

	// TLSSoonExpiryDays is the threshold at or below which a valid certificate
	// only earns partial credit.
	TLSSoonExpiryDays = 15

	// HeaderBodyDrainLimit caps how much of a response body is read before closing.
	HeaderBodyDrainLimit = 64 * 1024
)

const (
	// DefaultScanConcurrency is the number of domains scanned at once by the batch runner.
	DefaultScanConcurrency = 4
	// DefaultScanRateLimit is the number of scans started per second by the batch runner.
	DefaultScanRateLimit = 2

	// DefaultHistoryFile is the SQLite file name inside the results directory.
	DefaultHistoryFile = "history.db"
	// DefaultHistoryLimit is how many entries history listings return by default.
	DefaultHistoryLimit = 20

	// DefaultBrand is printed in the PDF header band.
	DefaultBrand = "CyberAudit.io"
)
