package checker

import (
	"context"
	"sync"
	"time"

	"github.com/khanhnv2901/cyberaudit/internal/shared/constants"
	"golang.org/x/time/rate"
)

// FullScanner is the single operation the runner needs from a Scanner.
type FullScanner interface {
	RunFullScan(ctx context.Context, rawDomain string) ScanResult
}

// ResultFunc is called once per finished scan, from the worker goroutine.
type ResultFunc func(input string, result ScanResult, duration time.Duration)

// Runner scans many domains with bounded concurrency and a global rate limit.
type Runner struct {
	Concurrency int // Maximum number of concurrent scans
	RateLimit   int // Scans started per second (global)
}

// RunScans scans every input and returns the results in input order.
func (r *Runner) RunScans(ctx context.Context, domains []string, scanner FullScanner, fn ResultFunc) []ScanResult {
	concurrency := r.Concurrency
	if concurrency <= 0 {
		concurrency = constants.DefaultScanConcurrency
	}
	rps := r.RateLimit
	if rps <= 0 {
		rps = constants.DefaultScanRateLimit
	}

	// Rate limiter
	limiter := rate.NewLimiter(rate.Limit(rps), rps)

	// Worker pool
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	results := make([]ScanResult, len(domains))

	for i, domain := range domains {
		wg.Add(1)
		go func(idx int, d string) {
			defer wg.Done()

			// Acquire semaphore
			sem <- struct{}{}
			defer func() { <-sem }()

			// A cancelled wait still runs the scan; the probes fail fast on ctx.
			_ = limiter.Wait(ctx)

			start := time.Now()
			result := scanner.RunFullScan(ctx, d)

			if fn != nil {
				fn(d, result, time.Since(start))
			}

			// Each worker owns its slot.
			results[idx] = result
		}(i, domain)
	}

	wg.Wait()
	return results
}
