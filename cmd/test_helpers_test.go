package cmd

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/khanhnv2901/cyberaudit/internal/checker"
)

// fakeScanner returns canned results keyed by the normalized domain.
type fakeScanner struct {
	mu      sync.Mutex
	results map[string]checker.ScanResult
	calls   []string
}

func (f *fakeScanner) RunFullScan(ctx context.Context, raw string) checker.ScanResult {
	domain := checker.NormalizeDomain(raw)
	f.mu.Lock()
	f.calls = append(f.calls, domain)
	f.mu.Unlock()

	if r, ok := f.results[domain]; ok {
		return r
	}
	return checker.ScanResult{
		Domain:    domain,
		Score:     25,
		Rating:    checker.RatingCritical,
		ScannedAt: time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC),
		TLS:       checker.TLSResult{IssuerCommonName: checker.TLSErrorIssuer},
		Ports:     checker.PortScanResult{Open: []int{}},
		Headers:   checker.HeaderResult{Missing: []string{checker.MissingUnreachable}},
	}
}

func secureResult(domain string) checker.ScanResult {
	return checker.ScanResult{
		Domain:    domain,
		Score:     100,
		Rating:    checker.RatingExcellent,
		ScannedAt: time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC),
		TLS:       checker.TLSResult{Valid: true, DaysRemaining: 80, IssuerCommonName: "Test CA"},
		Ports:     checker.PortScanResult{Open: []int{}},
		Email:     checker.EmailPolicyResult{DMARCPresent: true},
		Headers:   checker.HeaderResult{Secure: true, HSTSPresent: true, Missing: []string{}},
	}
}

// withCLIConfig swaps the package config and results dir for the duration of a test.
func withCLIConfig(t *testing.T) *CLIConfig {
	t.Helper()
	originalCfg := cliConfig
	originalDir := resultsDir

	cliConfig = newCLIConfig()
	cliConfig.Scan.RateLimit = 100
	resultsDir = t.TempDir()

	t.Cleanup(func() {
		cliConfig = originalCfg
		resultsDir = originalDir
	})
	return cliConfig
}
