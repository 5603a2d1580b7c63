package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/khanhnv2901/cyberaudit/internal/checker"
	"github.com/khanhnv2901/cyberaudit/internal/history"
	sharedErrors "github.com/khanhnv2901/cyberaudit/internal/shared/errors"
	"gopkg.in/yaml.v3"
)

func TestNormalizeArgs(t *testing.T) {
	got, err := normalizeArgs([]string{" https://www.example.com/ ", "b.io"})
	if err != nil {
		t.Fatalf("normalizeArgs: %v", err)
	}
	if len(got) != 2 || got[0] != "https://www.example.com/" || got[1] != "b.io" {
		t.Fatalf("unexpected domains %v", got)
	}

	if _, err := normalizeArgs([]string{"example.com", "https://"}); !errors.Is(err, sharedErrors.ErrEmptyDomain) {
		t.Fatalf("expected ErrEmptyDomain, got %v", err)
	}
}

func TestRunScanTableRecordsHistory(t *testing.T) {
	withCLIConfig(t)
	disableColor(t)

	scanner := &fakeScanner{results: map[string]checker.ScanResult{
		"good.com": secureResult("good.com"),
	}}
	repo := history.NewMemoryRepository()
	defer repo.Close()

	var out bytes.Buffer
	err := runScan(context.Background(), &out, scanner, repo, []string{"good.com", "down.com"}, scanOptions{Format: formatTable})
	if err != nil {
		t.Fatalf("runScan: %v", err)
	}

	text := out.String()
	for _, want := range []string{
		"Domain: good.com",
		"100 / 100 (EXCELLENT)",
		"Domain: down.com",
		"25 / 100 (CRITICAL)",
		"[WARNING] HTTP security headers",
		"Saved as",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("expected %q in output:\n%s", want, text)
		}
	}
	if strings.Index(text, "good.com") > strings.Index(text, "down.com") {
		t.Error("expected results printed in input order")
	}

	entries, err := repo.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 || entries[0].Result.Domain != "down.com" {
		t.Fatalf("expected both scans recorded newest first, got %+v", entries)
	}
}

func TestRunScanJSONSingle(t *testing.T) {
	withCLIConfig(t)

	scanner := &fakeScanner{results: map[string]checker.ScanResult{
		"example.com": secureResult("example.com"),
	}}

	var out bytes.Buffer
	if err := runScan(context.Background(), &out, scanner, nil, []string{"www.example.com"}, scanOptions{Format: formatJSON}); err != nil {
		t.Fatalf("runScan: %v", err)
	}

	var got scanOutcome
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON %q: %v", out.String(), err)
	}
	if got.EntryID != "" {
		t.Errorf("expected no entry ID without history, got %q", got.EntryID)
	}
	if got.Result.Domain != "example.com" || got.Result.Score != 100 {
		t.Errorf("unexpected result %+v", got.Result)
	}
}

func TestRunScanYAMLMultiple(t *testing.T) {
	withCLIConfig(t)

	var out bytes.Buffer
	if err := runScan(context.Background(), &out, &fakeScanner{}, nil, []string{"a.com", "b.com"}, scanOptions{Format: formatYAML}); err != nil {
		t.Fatalf("runScan: %v", err)
	}

	var got []scanOutcome
	if err := yaml.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("invalid YAML %q: %v", out.String(), err)
	}
	if len(got) != 2 || got[0].Result.Domain != "a.com" || got[1].Result.Domain != "b.com" {
		t.Fatalf("unexpected outcomes %+v", got)
	}
	if got[0].Result.Rating != checker.RatingCritical {
		t.Errorf("expected rating to round-trip, got %q", got[0].Result.Rating)
	}
}

func TestRunScanWritesPDF(t *testing.T) {
	withCLIConfig(t)
	dir := t.TempDir()

	t.Run("single file", func(t *testing.T) {
		path := filepath.Join(dir, "single", "report.pdf")
		var out bytes.Buffer
		if err := runScan(context.Background(), &out, &fakeScanner{}, nil, []string{"one.com"}, scanOptions{Format: formatJSON, PDFPath: path}); err != nil {
			t.Fatalf("runScan: %v", err)
		}
		assertPDF(t, path)
	})

	t.Run("directory per domain", func(t *testing.T) {
		target := filepath.Join(dir, "batch")
		var out bytes.Buffer
		if err := runScan(context.Background(), &out, &fakeScanner{}, nil, []string{"one.com", "two.com"}, scanOptions{Format: formatJSON, PDFPath: target}); err != nil {
			t.Fatalf("runScan: %v", err)
		}
		assertPDF(t, filepath.Join(target, "one.com-20260201.pdf"))
		assertPDF(t, filepath.Join(target, "two.com-20260201.pdf"))
	})
}

func assertPDF(t *testing.T, path string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected PDF at %s: %v", path, err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Fatalf("%s is not a PDF", path)
	}
}

func TestRunScanHistoryFailureIsReported(t *testing.T) {
	withCLIConfig(t)

	repo := history.NewMemoryRepository()
	repo.Close()

	var out bytes.Buffer
	err := runScan(context.Background(), &out, &fakeScanner{}, repo, []string{"a.com"}, scanOptions{Format: formatTable})
	if !errors.Is(err, sharedErrors.ErrHistoryClosed) {
		t.Fatalf("expected ErrHistoryClosed, got %v", err)
	}
	if !strings.Contains(out.String(), "a.com") {
		t.Fatalf("expected result printed despite history failure, got %q", out.String())
	}
}
