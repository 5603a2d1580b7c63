package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/khanhnv2901/cyberaudit/internal/checker"
	"github.com/khanhnv2901/cyberaudit/internal/history"
	"github.com/khanhnv2901/cyberaudit/internal/report"
	"github.com/khanhnv2901/cyberaudit/internal/shared/constants"
	sharedErrors "github.com/khanhnv2901/cyberaudit/internal/shared/errors"
	"github.com/khanhnv2901/cyberaudit/internal/shared/security"
	"github.com/spf13/cobra"
)

// scanOptions holds per-invocation flags that are not part of CLIConfig.
type scanOptions struct {
	Format    string
	PDFPath   string
	NoHistory bool
	Progress  bool
}

// scanOutcome pairs a result with the history entry it was stored as, if any.
type scanOutcome struct {
	EntryID string             `json:"id,omitempty" yaml:"id,omitempty"`
	Result  checker.ScanResult `json:"result" yaml:"result"`
	PDF     string             `json:"pdf,omitempty" yaml:"pdf,omitempty"`
}

var scanCmd = &cobra.Command{
	Use:   "scan <domain>...",
	Short: "Scan one or more domains and score their security posture",
	Long: `Scan probes each domain for its TLS certificate, exposed administrative ports,
a published DMARC policy and the HSTS / X-Frame-Options headers, then prints a
0-100 score with a rating (excellent, average or critical).

Only scan domains you own or are authorized to test.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rawFormat, _ := cmd.Flags().GetString("format")
		format, err := parseOutputFormat(rawFormat)
		if err != nil {
			return err
		}
		opts := scanOptions{Format: format}
		opts.PDFPath, _ = cmd.Flags().GetString("pdf")
		opts.NoHistory, _ = cmd.Flags().GetBool("no-history")
		opts.Progress, _ = cmd.Flags().GetBool("progress")

		domains, err := normalizeArgs(args)
		if err != nil {
			return err
		}

		var repo history.Repository
		if !opts.NoHistory {
			repo, err = openHistory(cliConfig.History, resultsDir)
			if err != nil {
				return err
			}
			defer repo.Close()
		}

		scanner := checker.NewScanner(checker.ScannerConfig{
			TLSTimeout:  cliConfig.Scan.TLSTimeout,
			PortTimeout: cliConfig.Scan.PortTimeout,
			HTTPTimeout: cliConfig.Scan.HTTPTimeout,
			DNSTimeout:  cliConfig.Scan.DNSTimeout,
			Nameservers: cliConfig.Scan.Nameservers,
			Parallel:    cliConfig.Scan.Parallel,
			Logger:      logger.Desugar(),
		})

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		return runScan(ctx, cmd.OutOrStdout(), scanner, repo, domains, opts)
	},
}

// normalizeArgs rejects inputs that normalize to nothing, keeping the raw values for the scanner.
func normalizeArgs(args []string) ([]string, error) {
	domains := make([]string, 0, len(args))
	for _, arg := range args {
		raw := strings.TrimSpace(arg)
		if checker.NormalizeDomain(raw) == "" {
			return nil, fmt.Errorf("%w: %q", sharedErrors.ErrEmptyDomain, arg)
		}
		domains = append(domains, raw)
	}
	return domains, nil
}

func runScan(ctx context.Context, w io.Writer, scanner checker.FullScanner, repo history.Repository, domains []string, opts scanOptions) error {
	if opts.PDFPath != "" && len(domains) > 1 {
		if err := os.MkdirAll(opts.PDFPath, constants.DefaultDirPerm); err != nil {
			return fmt.Errorf("failed to create PDF directory: %w", err)
		}
	}

	runner := &checker.Runner{
		Concurrency: cliConfig.Scan.Concurrency,
		RateLimit:   cliConfig.Scan.RateLimit,
	}

	showProgress := opts.Progress && opts.Format == formatTable && len(domains) > 1
	var progress *progressPrinter
	if showProgress {
		progress = newProgressPrinter(len(domains), "scan")
		progress.Start()
	}

	results := runner.RunScans(ctx, domains, scanner, func(input string, result checker.ScanResult, d time.Duration) {
		if progress != nil {
			progress.Increment(result.Score >= 50, d.Seconds())
		}
		if logger != nil {
			logger.Debugf("scanned %s score=%d in %s", result.Domain, result.Score, d)
		}
	})

	if progress != nil {
		progress.Stop()
	}

	outcomes := make([]scanOutcome, len(results))
	var errs []error
	for i, result := range results {
		outcomes[i].Result = result

		if repo != nil {
			entry, err := repo.Append(ctx, result)
			if err != nil {
				errs = append(errs, fmt.Errorf("failed to record %s: %w", result.Domain, err))
			} else {
				outcomes[i].EntryID = entry.ID
			}
		}

		if opts.PDFPath != "" {
			path, err := writeScanPDF(result, opts.PDFPath, len(results) > 1)
			if err != nil {
				errs = append(errs, err)
			} else {
				outcomes[i].PDF = path
			}
		}
	}

	if opts.Format == formatTable {
		for _, o := range outcomes {
			writeScanTable(w, o)
		}
	} else {
		var payload interface{} = outcomes
		if len(outcomes) == 1 {
			payload = outcomes[0]
		}
		if err := writeStructured(w, opts.Format, payload); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// writeScanPDF writes a report to path, or to a per-domain file under path when inDir is set.
func writeScanPDF(result checker.ScanResult, path string, inDir bool) (string, error) {
	target := path
	if inDir {
		p, err := security.ReportPath(path, result.Domain, "pdf", result.ScannedAt)
		if err != nil {
			return "", fmt.Errorf("failed to resolve PDF path for %s: %w", result.Domain, err)
		}
		target = p
	}

	data, err := report.RenderPDF(result, report.Options{Brand: cliConfig.Report.Brand})
	if err != nil {
		return "", err
	}
	if dir := filepath.Dir(target); dir != "." {
		if err := os.MkdirAll(dir, constants.DefaultDirPerm); err != nil {
			return "", fmt.Errorf("failed to create PDF directory: %w", err)
		}
	}
	if err := os.WriteFile(target, data, constants.DefaultFilePerm); err != nil {
		return "", fmt.Errorf("failed to write PDF: %w", err)
	}
	if logger != nil {
		logger.Infow("pdf report written", "domain", result.Domain, "path", target)
	}
	return target, nil
}

func writeScanTable(w io.Writer, o scanOutcome) {
	r := o.Result
	fmt.Fprintf(w, "\n%s %s\n", colorBold("Domain:"), r.Domain)
	fmt.Fprintf(w, "%s %d / 100 (%s)\n", colorBold("Score: "), r.Score, formatRating(r.Rating))
	fmt.Fprintf(w, "%s %s\n", colorBold("Scanned:"), r.ScannedAt.Local().Format("2006-01-02 15:04:05"))

	for _, f := range checker.Findings(r) {
		fmt.Fprintf(w, "  [%s] %-24s %s\n", formatFindingStatus(f.Status), f.Check, f.Detail)
		if f.Recommendation != "" {
			fmt.Fprintf(w, "           %s %s\n", colorInfo("→"), f.Recommendation)
		}
	}

	if o.EntryID != "" {
		fmt.Fprintf(w, "%s %s\n", colorInfo("Saved as"), o.EntryID)
	}
	if o.PDF != "" {
		fmt.Fprintf(w, "%s %s\n", colorSuccess("PDF report:"), o.PDF)
	}
}

func init() {
	flags := scanCmd.Flags()
	flags.String("format", formatTable, "Output format: table, json or yaml")
	flags.String("pdf", "", "Write a PDF report to this file (a directory when scanning several domains)")
	flags.Bool("no-history", false, "Do not record results in the scan history")
	flags.Bool("progress", true, "Show a progress line while scanning several domains")

	flags.BoolVar(&cliConfig.Scan.Parallel, "parallel", cliConfig.Scan.Parallel, "Run the four probes of each scan concurrently")
	flags.IntVar(&cliConfig.Scan.Concurrency, "concurrency", cliConfig.Scan.Concurrency, "Maximum domains scanned at once")
	flags.IntVar(&cliConfig.Scan.RateLimit, "rate-limit", cliConfig.Scan.RateLimit, "Scans started per second")
	flags.DurationVar(&cliConfig.Scan.TLSTimeout, "tls-timeout", cliConfig.Scan.TLSTimeout, "TLS dial and handshake timeout")
	flags.DurationVar(&cliConfig.Scan.PortTimeout, "port-timeout", cliConfig.Scan.PortTimeout, "Per-port TCP connect timeout")
	flags.DurationVar(&cliConfig.Scan.HTTPTimeout, "http-timeout", cliConfig.Scan.HTTPTimeout, "HTTPS header request timeout")
	flags.DurationVar(&cliConfig.Scan.DNSTimeout, "dns-timeout", cliConfig.Scan.DNSTimeout, "DMARC TXT lookup timeout")
	flags.StringSliceVar(&cliConfig.Scan.Nameservers, "nameserver", cliConfig.Scan.Nameservers, "DNS server for the DMARC lookup (repeatable, default from /etc/resolv.conf)")
}
