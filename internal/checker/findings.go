package checker

import (
	"fmt"
	"strings"

	"github.com/khanhnv2901/cyberaudit/internal/shared/constants"
)

// FindingStatus is the outcome of one check as shown in reports.
type FindingStatus string

const (
	StatusOK      FindingStatus = "OK"
	StatusWarning FindingStatus = "WARNING"
)

// Finding is a human-readable line of the technical analysis.
type Finding struct {
	Check          string        `json:"check" yaml:"check"`
	Severity       string        `json:"severity" yaml:"severity"` // "critical", "high", "medium"
	Status         FindingStatus `json:"status" yaml:"status"`
	Detail         string        `json:"detail" yaml:"detail"`
	Recommendation string        `json:"recommendation,omitempty" yaml:"recommendation,omitempty"`
}

// findingSpec describes how each check is labelled and remediated.
type findingSpec struct {
	Check          string
	Severity       string
	Recommendation string
}

var (
	tlsSpec = findingSpec{
		Check:          "SSL/TLS certificate",
		Severity:       "critical",
		Recommendation: "Serve a certificate from a trusted CA and automate its renewal",
	}
	portsSpec = findingSpec{
		Check:          "Exposed services",
		Severity:       "critical",
		Recommendation: "Close or firewall administrative ports (FTP, SSH, Telnet, RDP, HTTP-alt) from the internet",
	}
	emailSpec = findingSpec{
		Check:          "Email spoofing (DMARC)",
		Severity:       "high",
		Recommendation: "Publish a DMARC policy, e.g. 'v=DMARC1; p=quarantine; rua=mailto:dmarc@<domain>'",
	}
	headersSpec = findingSpec{
		Check:    "HTTP security headers",
		Severity: "high",
	}
)

// headerRecommendations maps a missing-header label to its remediation.
var headerRecommendations = map[string]string{
	MissingHSTS:        "Add 'Strict-Transport-Security: max-age=31536000; includeSubDomains; preload'",
	MissingXFrame:      "Add 'X-Frame-Options: DENY' or 'SAMEORIGIN'",
	MissingUnreachable: "Make the site reachable over HTTPS on port 443",
}

// Findings derives the per-check report lines of a scan, in probe order.
func Findings(r ScanResult) []Finding {
	return []Finding{
		tlsFinding(r.TLS),
		portsFinding(r.Ports),
		emailFinding(r.Email),
		headersFinding(r.Headers),
	}
}

func tlsFinding(t TLSResult) Finding {
	f := newFinding(tlsSpec)
	switch {
	case !t.Valid:
		f.Detail = "Certificate invalid or unreachable"
		f.Recommendation = tlsSpec.Recommendation
	case t.DaysRemaining <= constants.TLSSoonExpiryDays:
		f.Status = StatusWarning
		f.Detail = fmt.Sprintf("Valid, expires in %d days (issuer %s)", t.DaysRemaining, t.IssuerCommonName)
		f.Recommendation = "Renew the certificate before it expires"
	default:
		f.Status = StatusOK
		f.Detail = fmt.Sprintf("Valid, %d days remaining (issuer %s)", t.DaysRemaining, t.IssuerCommonName)
	}
	return f
}

func portsFinding(p PortScanResult) Finding {
	f := newFinding(portsSpec)
	if p.Count() == 0 {
		f.Status = StatusOK
		f.Detail = "No critical port exposed"
		return f
	}
	f.Detail = "Open: " + DescribePorts(p)
	f.Recommendation = portsSpec.Recommendation
	return f
}

func emailFinding(e EmailPolicyResult) Finding {
	f := newFinding(emailSpec)
	if e.DMARCPresent {
		f.Status = StatusOK
		f.Detail = "DMARC policy published"
		return f
	}
	f.Detail = "No DMARC policy found"
	f.Recommendation = emailSpec.Recommendation
	return f
}

func headersFinding(h HeaderResult) Finding {
	f := newFinding(headersSpec)
	if !h.Reachable() {
		f.Detail = "Site unreachable over HTTPS"
		f.Recommendation = headerRecommendations[MissingUnreachable]
		return f
	}
	if len(h.Missing) == 0 {
		f.Status = StatusOK
		f.Detail = "HSTS and X-Frame-Options present"
		return f
	}

	recs := make([]string, 0, len(h.Missing))
	for _, name := range h.Missing {
		recs = append(recs, headerRecommendations[name])
	}
	f.Detail = "Missing: " + strings.Join(h.Missing, ", ")
	f.Recommendation = strings.Join(recs, "; ")
	if h.Secure {
		// Partially protected still earns the bucket.
		f.Status = StatusOK
	}
	return f
}

func newFinding(spec findingSpec) Finding {
	return Finding{Check: spec.Check, Severity: spec.Severity, Status: StatusWarning}
}
