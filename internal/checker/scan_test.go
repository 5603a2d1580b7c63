package checker

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

type fakeTLS struct {
	mu    sync.Mutex
	hosts []string
	res   TLSResult
}

func (f *fakeTLS) Probe(ctx context.Context, host string) TLSResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hosts = append(f.hosts, host)
	return f.res
}

type fakePorts struct{ res PortScanResult }

func (f fakePorts) Probe(ctx context.Context, host string) PortScanResult { return f.res }

type fakeEmail struct{ res EmailPolicyResult }

func (f fakeEmail) Probe(ctx context.Context, host string) EmailPolicyResult { return f.res }

type fakeHeaders struct{ res HeaderResult }

func (f fakeHeaders) Probe(ctx context.Context, host string) HeaderResult { return f.res }

func newFakeScanner(t *testing.T, tls TLSResult, ports PortScanResult, email EmailPolicyResult, headers HeaderResult) (*Scanner, *fakeTLS) {
	t.Helper()
	tlsProbe := &fakeTLS{res: tls}
	return &Scanner{
		TLS:     tlsProbe,
		Ports:   fakePorts{res: ports},
		Email:   fakeEmail{res: email},
		Headers: fakeHeaders{res: headers},
		Now:     func() time.Time { return time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC) },
		Logger:  zaptest.NewLogger(t),
	}, tlsProbe
}

func TestRunFullScan(t *testing.T) {
	for _, parallel := range []bool{false, true} {
		name := "sequential"
		if parallel {
			name = "parallel"
		}
		t.Run(name, func(t *testing.T) {
			scanner, tlsProbe := newFakeScanner(t,
				TLSResult{Valid: true, DaysRemaining: 60, IssuerCommonName: "R3"},
				PortScanResult{Open: []int{}},
				EmailPolicyResult{DMARCPresent: true},
				secureHeaders(),
			)
			scanner.Parallel = parallel

			got := scanner.RunFullScan(context.Background(), "https://www.example.com/login")

			if got.Domain != "example.com" {
				t.Errorf("Domain = %q, want example.com", got.Domain)
			}
			if len(tlsProbe.hosts) != 1 || tlsProbe.hosts[0] != "example.com" {
				t.Errorf("TLS probe hosts = %v, want [example.com]", tlsProbe.hosts)
			}
			if got.Score != 100 || got.Rating != RatingExcellent {
				t.Errorf("Score = %d (%s), want 100 (excellent)", got.Score, got.Rating)
			}
			if !got.ScannedAt.Equal(time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)) {
				t.Errorf("ScannedAt = %v", got.ScannedAt)
			}
			if got.TLS.IssuerCommonName != "R3" {
				t.Errorf("TLS = %+v", got.TLS)
			}
		})
	}
}

func TestRunFullScan_UnreachableHost(t *testing.T) {
	scanner, _ := newFakeScanner(t, tlsFailure(), PortScanResult{Open: []int{}}, EmailPolicyResult{}, headersUnreachable())

	got := scanner.RunFullScan(context.Background(), "nonexistent-domain-xyz.invalid")
	if got.Score != 25 {
		t.Errorf("Score = %d, want 25", got.Score)
	}
	if got.Rating != RatingCritical {
		t.Errorf("Rating = %s, want critical", got.Rating)
	}
	if got.Headers.Reachable() {
		t.Error("headers reported reachable")
	}
}

func TestRunFullScan_ScoreMatchesParts(t *testing.T) {
	scanner, _ := newFakeScanner(t,
		TLSResult{Valid: true, DaysRemaining: 5, IssuerCommonName: "E1"},
		PortScanResult{Open: []int{22}},
		EmailPolicyResult{},
		HeaderResult{Secure: true, Missing: []string{MissingHSTS}},
	)

	got := scanner.RunFullScan(context.Background(), "example.org")
	if want := Score(got.TLS, got.Ports, got.Email, got.Headers); got.Score != want {
		t.Errorf("Score = %d, recomputed %d", got.Score, want)
	}
	if got.Score != 50 {
		t.Errorf("Score = %d, want 50", got.Score)
	}
}

func TestNewScanner_WiresProbes(t *testing.T) {
	s := NewScanner(ScannerConfig{
		TLSTimeout:  time.Second,
		PortTimeout: 100 * time.Millisecond,
		HTTPTimeout: 2 * time.Second,
		DNSTimeout:  3 * time.Second,
		Nameservers: []string{"127.0.0.1"},
		Parallel:    true,
	})

	if tp, ok := s.TLS.(*TLSProbe); !ok || tp.Timeout != time.Second {
		t.Errorf("TLS probe = %#v", s.TLS)
	}
	if pp, ok := s.Ports.(*PortProbe); !ok || pp.Timeout != 100*time.Millisecond {
		t.Errorf("port probe = %#v", s.Ports)
	}
	if ep, ok := s.Email.(*EmailProbe); !ok || ep.Timeout != 3*time.Second || len(ep.Nameservers) != 1 {
		t.Errorf("email probe = %#v", s.Email)
	}
	if hp, ok := s.Headers.(*HeaderProbe); !ok || hp.Timeout != 2*time.Second {
		t.Errorf("header probe = %#v", s.Headers)
	}
	if !s.Parallel || s.Logger == nil {
		t.Errorf("scanner = %#v", s)
	}
}
