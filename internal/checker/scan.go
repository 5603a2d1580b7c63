package checker

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// TLSProber reads certificate posture for a host.
type TLSProber interface {
	Probe(ctx context.Context, host string) TLSResult
}

// PortProber reports open critical ports for a host.
type PortProber interface {
	Probe(ctx context.Context, host string) PortScanResult
}

// EmailProber reports the email anti-spoofing policy of a host.
type EmailProber interface {
	Probe(ctx context.Context, host string) EmailPolicyResult
}

// HeaderProber reports the HTTP security headers of a host.
type HeaderProber interface {
	Probe(ctx context.Context, host string) HeaderResult
}

// ScannerConfig carries the tunables used by NewScanner.
type ScannerConfig struct {
	TLSTimeout  time.Duration
	PortTimeout time.Duration
	HTTPTimeout time.Duration
	DNSTimeout  time.Duration
	Nameservers []string
	Parallel    bool
	Logger      *zap.Logger
}

// Scanner runs the four probes against one domain and scores the outcome.
type Scanner struct {
	TLS     TLSProber
	Ports   PortProber
	Email   EmailProber
	Headers HeaderProber

	// Parallel runs the probes concurrently; results are joined before scoring.
	Parallel bool
	Now      func() time.Time
	Logger   *zap.Logger
}

// NewScanner builds a Scanner backed by the network probes.
func NewScanner(cfg ScannerConfig) *Scanner {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{
		TLS:      &TLSProbe{Timeout: cfg.TLSTimeout, Logger: logger},
		Ports:    &PortProbe{Timeout: cfg.PortTimeout, Logger: logger},
		Email:    &EmailProbe{Timeout: cfg.DNSTimeout, Nameservers: cfg.Nameservers, Logger: logger},
		Headers:  &HeaderProbe{Timeout: cfg.HTTPTimeout, Logger: logger},
		Parallel: cfg.Parallel,
		Logger:   logger,
	}
}

// RunFullScan normalizes the input, probes the host and returns the scored
// result. It never fails: unreachable hosts are reported through the probes'
// failure values.
func (s *Scanner) RunFullScan(ctx context.Context, rawDomain string) ScanResult {
	host := NormalizeDomain(rawDomain)
	started := s.now()

	var (
		tlsRes    TLSResult
		portRes   PortScanResult
		emailRes  EmailPolicyResult
		headerRes HeaderResult
	)

	if s.Parallel {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { tlsRes = s.TLS.Probe(gctx, host); return nil })
		g.Go(func() error { portRes = s.Ports.Probe(gctx, host); return nil })
		g.Go(func() error { emailRes = s.Email.Probe(gctx, host); return nil })
		g.Go(func() error { headerRes = s.Headers.Probe(gctx, host); return nil })
		_ = g.Wait()
	} else {
		tlsRes = s.TLS.Probe(ctx, host)
		portRes = s.Ports.Probe(ctx, host)
		emailRes = s.Email.Probe(ctx, host)
		headerRes = s.Headers.Probe(ctx, host)
	}

	score := Score(tlsRes, portRes, emailRes, headerRes)
	result := ScanResult{
		Domain:    host,
		Score:     score,
		Rating:    RatingFor(score),
		ScannedAt: started,
		TLS:       tlsRes,
		Ports:     portRes,
		Email:     emailRes,
		Headers:   headerRes,
	}

	if s.Logger != nil {
		s.Logger.Info("scan complete",
			zap.String("domain", host),
			zap.Int("score", score),
			zap.String("rating", string(result.Rating)),
			zap.Duration("duration", s.now().Sub(started)),
		)
	}
	return result
}

func (s *Scanner) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
