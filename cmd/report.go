package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/khanhnv2901/cyberaudit/internal/history"
	"github.com/khanhnv2901/cyberaudit/internal/report"
	"github.com/khanhnv2901/cyberaudit/internal/shared/constants"
	sharedErrors "github.com/khanhnv2901/cyberaudit/internal/shared/errors"
	"github.com/khanhnv2901/cyberaudit/internal/shared/security"
	"github.com/spf13/cobra"
)

const (
	reportFormatPDF      = "pdf"
	reportFormatMarkdown = "md"
)

var reportFormats = []string{reportFormatPDF, reportFormatMarkdown}

var reportCmd = &cobra.Command{
	Use:   "report <scan-id>",
	Short: "Render the report of a stored scan",
	Long: `Report renders a scan recorded in history as a PDF (default) or Markdown document.
Without --out the file is written to the results directory as <domain>-YYYYMMDD.<ext>;
use --out - to write to stdout.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")
		format, _ := cmd.Flags().GetString("format")

		repo, err := openHistory(cliConfig.History, resultsDir)
		if err != nil {
			return err
		}
		defer repo.Close()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		path, err := runReport(ctx, cmd.OutOrStdout(), repo, args[0], format, out)
		if err != nil {
			return err
		}
		if path != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s report written to %s\n", colorSuccess("✓"), path)
		}
		return nil
	},
}

// runReport renders a stored scan and returns the written path ("" for stdout).
func runReport(ctx context.Context, stdout io.Writer, repo history.Repository, id, format, out string) (string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = reportFormatPDF
	}
	if format == "markdown" {
		format = reportFormatMarkdown
	}
	if format != reportFormatPDF && format != reportFormatMarkdown {
		return "", &UnsupportedFormatError{Format: format, Allowed: reportFormats}
	}

	entry, err := repo.Get(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, sharedErrors.ErrEntryNotFound) || errors.Is(err, sharedErrors.ErrInvalidEntryID) {
			return "", &ScanNotFoundError{ID: id}
		}
		return "", fmt.Errorf("failed to load scan %s: %w", id, err)
	}

	data, err := renderEntry(entry, format)
	if err != nil {
		return "", err
	}

	if out == "-" {
		_, err := stdout.Write(data)
		return "", err
	}

	if out == "" {
		out, err = security.ReportPath(resultsDir, entry.Result.Domain, format, entry.Result.ScannedAt)
		if err != nil {
			return "", err
		}
	}
	if err := os.WriteFile(out, data, constants.DefaultFilePerm); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return out, nil
}

func renderEntry(entry history.Entry, format string) ([]byte, error) {
	opts := report.Options{Brand: cliConfig.Report.Brand}
	if format == reportFormatMarkdown {
		md, err := report.RenderMarkdown(entry.Result, opts)
		if err != nil {
			return nil, err
		}
		return []byte(md), nil
	}
	return report.RenderPDF(entry.Result, opts)
}

func init() {
	reportCmd.Flags().String("out", "", "Output file (default <results_dir>/<domain>-YYYYMMDD.<ext>, - for stdout)")
	reportCmd.Flags().String("format", reportFormatPDF, "Report format: pdf or md")
}
