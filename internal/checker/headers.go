package checker

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/khanhnv2901/cyberaudit/internal/shared/constants"
	"go.uber.org/zap"
)

const (
	headerHSTS   = "Strict-Transport-Security"
	headerXFrame = "X-Frame-Options"
	headerCSP    = "Content-Security-Policy"
)

// HeaderProbe fetches the HTTPS landing page and checks for security headers.
type HeaderProbe struct {
	Timeout time.Duration
	Client  *http.Client // nil builds a client with the default redirect policy
	Logger  *zap.Logger
}

// Probe issues a single GET to https://<host>. Only header presence is checked;
// values are not validated. Any transport failure reports the page as unreachable.
func (p *HeaderProbe) Probe(ctx context.Context, host string) HeaderResult {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = constants.HTTPProbeTimeout
	}

	client := p.Client
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, "https://"+host, nil)
	if err != nil {
		p.logFailure(host, err)
		return headersUnreachable()
	}

	resp, err := client.Do(req)
	if err != nil {
		p.logFailure(host, err)
		return headersUnreachable()
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, constants.HeaderBodyDrainLimit))

	return AnalyzeHeaders(resp.Header)
}

// AnalyzeHeaders evaluates a response header set.
func AnalyzeHeaders(h http.Header) HeaderResult {
	hsts := headerPresent(h, headerHSTS)
	xFrame := headerPresent(h, headerXFrame)

	result := HeaderResult{
		Secure:      hsts || xFrame,
		HSTSPresent: hsts,
		CSPPresent:  headerPresent(h, headerCSP),
		Missing:     []string{},
	}
	if !hsts {
		result.Missing = append(result.Missing, MissingHSTS)
	}
	if !xFrame {
		result.Missing = append(result.Missing, MissingXFrame)
	}
	return result
}

// headerPresent reports whether the header was sent, even with an empty value.
func headerPresent(h http.Header, name string) bool {
	return len(h.Values(name)) > 0
}

func (p *HeaderProbe) logFailure(host string, err error) {
	if p.Logger == nil {
		return
	}
	p.Logger.Debug("header probe failed",
		zap.String("probe", "headers"),
		zap.String("host", host),
		zap.String("kind", classifyFailure(err)),
		zap.Error(err),
	)
}
