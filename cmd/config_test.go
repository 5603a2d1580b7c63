package cmd

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/khanhnv2901/cyberaudit/internal/history"
	"github.com/khanhnv2901/cyberaudit/internal/history/sqlite"
	"github.com/khanhnv2901/cyberaudit/internal/shared/constants"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func TestApplyIntDefault(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("concurrency", 0, "")

	var applied int
	applyIntDefault(flags, "concurrency", 15, func(v int) {
		applied = v
	})
	if applied != 15 {
		t.Fatalf("expected setter to receive 15, got %d", applied)
	}

	// When flag already set, setter should not run.
	if err := flags.Set("concurrency", "7"); err != nil {
		t.Fatalf("failed to set flag: %v", err)
	}
	applied = 0
	applyIntDefault(flags, "concurrency", 20, func(v int) {
		applied = v
	})
	if applied != 0 {
		t.Fatalf("setter should not run when flag overridden, got %d", applied)
	}
}

func TestApplyBoolDefault(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Bool("parallel", false, "")

	applied := false
	applyBoolDefault(flags, "parallel", true, func(v bool) {
		applied = v
	})
	if !applied {
		t.Fatal("expected setter to run with true")
	}

	if err := flags.Set("parallel", "false"); err != nil {
		t.Fatalf("failed to set bool flag: %v", err)
	}
	applied = true
	applyBoolDefault(flags, "parallel", true, func(v bool) {
		applied = v
	})
	if !applied {
		t.Fatalf("setter should not change value when flag already set")
	}
}

func TestApplyDurationDefault(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Duration("tls-timeout", time.Second, "")

	var applied time.Duration
	applyDurationDefault(flags, "tls-timeout", 5*time.Second, func(v time.Duration) { applied = v })
	if applied != 5*time.Second {
		t.Fatalf("expected 5s, got %s", applied)
	}

	if err := flags.Set("tls-timeout", "2s"); err != nil {
		t.Fatalf("failed to set flag: %v", err)
	}
	applied = 0
	applyDurationDefault(flags, "tls-timeout", 9*time.Second, func(v time.Duration) { applied = v })
	if applied != 0 {
		t.Fatalf("setter should not run when flag overridden, got %s", applied)
	}
}

func TestSetStringFlagIfUnset(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("history", "", "")

	setStringFlagIfUnset(flags, "history", "memory")
	if got := flags.Lookup("history").Value.String(); got != "memory" {
		t.Fatalf("expected history to be default, got %s", got)
	}

	if err := flags.Set("history", "sqlite"); err != nil {
		t.Fatalf("failed to set history: %v", err)
	}
	setStringFlagIfUnset(flags, "history", "memory")
	if got := flags.Lookup("history").Value.String(); got != "sqlite" {
		t.Fatalf("expected history to remain user-provided, got %s", got)
	}
}

func TestApplyConfigDefaults(t *testing.T) {
	cfg := withCLIConfig(t)
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("defaults.tls_timeout", "7s")
	viper.Set("defaults.dns_timeout", "0s")
	viper.Set("defaults.nameservers", []string{"9.9.9.9"})
	viper.Set("defaults.parallel", true)
	viper.Set("defaults.concurrency", 8)
	viper.Set("defaults.rate_limit", 0)
	viper.Set("history.path", "/tmp/custom.db")
	viper.Set("report.brand", "Acme Audit")

	applyConfigDefaults(&cobra.Command{Use: "test"})

	if cfg.Scan.TLSTimeout != 7*time.Second {
		t.Errorf("TLSTimeout = %s, want 7s", cfg.Scan.TLSTimeout)
	}
	if cfg.Scan.DNSTimeout != constants.DNSProbeTimeout {
		t.Errorf("non-positive DNS timeout should be ignored, got %s", cfg.Scan.DNSTimeout)
	}
	if len(cfg.Scan.Nameservers) != 1 || cfg.Scan.Nameservers[0] != "9.9.9.9" {
		t.Errorf("Nameservers = %v", cfg.Scan.Nameservers)
	}
	if !cfg.Scan.Parallel || cfg.Scan.Concurrency != 8 {
		t.Errorf("Parallel/Concurrency not applied: %+v", cfg.Scan)
	}
	if cfg.Scan.RateLimit != 100 {
		t.Errorf("zero rate limit should be ignored, got %d", cfg.Scan.RateLimit)
	}
	if cfg.History.Path != "/tmp/custom.db" || cfg.Report.Brand != "Acme Audit" {
		t.Errorf("history/report overrides not applied: %+v %+v", cfg.History, cfg.Report)
	}
}

func TestNewCLIConfigDefaults(t *testing.T) {
	cfg := newCLIConfig()
	if cfg.Scan.TLSTimeout != constants.TLSProbeTimeout || cfg.Scan.PortTimeout != constants.PortProbeTimeout {
		t.Errorf("unexpected probe timeouts %+v", cfg.Scan)
	}
	if cfg.Scan.Parallel {
		t.Error("probes should run sequentially by default")
	}
	if cfg.History.Driver != historyDriverSQLite || cfg.Report.Brand != constants.DefaultBrand {
		t.Errorf("unexpected defaults %+v %+v", cfg.History, cfg.Report)
	}
}

func TestOpenHistory(t *testing.T) {
	dir := t.TempDir()

	repo, err := openHistory(HistoryConfig{Driver: historyDriverMemory}, dir)
	if err != nil {
		t.Fatalf("openHistory(memory): %v", err)
	}
	if _, ok := repo.(*history.MemoryRepository); !ok {
		t.Fatalf("expected memory repository, got %T", repo)
	}
	repo.Close()

	repo, err = openHistory(HistoryConfig{Driver: "SQLite"}, dir)
	if err != nil {
		t.Fatalf("openHistory(sqlite): %v", err)
	}
	if _, ok := repo.(*sqlite.Repository); !ok {
		t.Fatalf("expected sqlite repository, got %T", repo)
	}
	repo.Close()

	if _, err := openHistory(HistoryConfig{Driver: "postgres"}, dir); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestHistoryPath(t *testing.T) {
	if got := historyPath(HistoryConfig{}, "/data"); got != filepath.Join("/data", constants.DefaultHistoryFile) {
		t.Fatalf("unexpected default path %s", got)
	}
	if got := historyPath(HistoryConfig{Path: "/elsewhere/h.db"}, "/data"); got != "/elsewhere/h.db" {
		t.Fatalf("explicit path not honoured: %s", got)
	}
}
