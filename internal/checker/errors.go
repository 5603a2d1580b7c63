package checker

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"strings"
	"syscall"
)

// Failure kinds attached to probe debug logs. They never reach the scorer.
const (
	failureDNS     = "dns"
	failureTimeout = "timeout"
	failureRefused = "refused"
	failureTLS     = "tls"
	failureOther   = "other"
)

// classifyFailure maps a probe error to a coarse kind for observability.
func classifyFailure(err error) string {
	if err == nil {
		return ""
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return failureTimeout
		}
		return failureDNS
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return failureTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return failureTimeout
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return failureRefused
	}

	var (
		verifyErr   *tls.CertificateVerificationError
		recordErr   tls.RecordHeaderError
		unknownAuth x509.UnknownAuthorityError
		hostErr     x509.HostnameError
		invalidErr  x509.CertificateInvalidError
	)
	switch {
	case errors.As(err, &verifyErr),
		errors.As(err, &recordErr),
		errors.As(err, &unknownAuth),
		errors.As(err, &hostErr),
		errors.As(err, &invalidErr):
		return failureTLS
	}
	if strings.Contains(strings.ToLower(err.Error()), "tls:") {
		return failureTLS
	}

	return failureOther
}
