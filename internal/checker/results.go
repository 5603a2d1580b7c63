package checker

import "time"

// CriticalPorts are the TCP ports whose exposure costs points. The order is the probe order.
var CriticalPorts = []int{
	21,   // FTP
	22,   // SSH
	23,   // Telnet
	3389, // RDP
	8080, // HTTP Alt
}

// Missing-header labels reported by the header probe, in report order.
const (
	MissingHSTS        = "HSTS"
	MissingXFrame      = "X-Frame"
	MissingUnreachable = "Unreachable"
)

// TLSErrorIssuer is the issuer reported when the certificate probe fails.
const TLSErrorIssuer = "Error"

// TLSResult describes the certificate presented on port 443.
// DaysRemaining is only meaningful when Valid is true and may be negative.
type TLSResult struct {
	Valid            bool   `json:"valid" yaml:"valid"`
	DaysRemaining    int    `json:"days_remaining" yaml:"days_remaining"`
	IssuerCommonName string `json:"issuer" yaml:"issuer"`
}

// PortScanResult lists the critical ports that accepted a TCP connection.
type PortScanResult struct {
	Open []int `json:"open" yaml:"open"`
}

// Count returns the number of open critical ports.
func (p PortScanResult) Count() int {
	return len(p.Open)
}

// EmailPolicyResult reports whether a DMARC policy is published.
type EmailPolicyResult struct {
	DMARCPresent bool `json:"dmarc" yaml:"dmarc"`
}

// HeaderResult summarizes the security headers of the HTTPS landing page.
// CSPPresent is recorded for reports only and does not affect Secure.
type HeaderResult struct {
	Secure      bool     `json:"secure" yaml:"secure"`
	HSTSPresent bool     `json:"hsts" yaml:"hsts"`
	CSPPresent  bool     `json:"csp" yaml:"csp"`
	Missing     []string `json:"missing" yaml:"missing"`
}

// Reachable reports whether the header probe got an HTTP response at all.
func (h HeaderResult) Reachable() bool {
	return !(len(h.Missing) == 1 && h.Missing[0] == MissingUnreachable)
}

// ScanResult is the complete posture record produced by one RunFullScan call.
type ScanResult struct {
	Domain    string            `json:"domain" yaml:"domain"`
	Score     int               `json:"score" yaml:"score"`
	Rating    Rating            `json:"rating" yaml:"rating"`
	ScannedAt time.Time         `json:"scanned_at" yaml:"scanned_at"`
	TLS       TLSResult         `json:"tls" yaml:"tls"`
	Ports     PortScanResult    `json:"ports" yaml:"ports"`
	Email     EmailPolicyResult `json:"email" yaml:"email"`
	Headers   HeaderResult      `json:"headers" yaml:"headers"`
}

func tlsFailure() TLSResult {
	return TLSResult{Valid: false, DaysRemaining: 0, IssuerCommonName: TLSErrorIssuer}
}

func headersUnreachable() HeaderResult {
	return HeaderResult{Missing: []string{MissingUnreachable}}
}
