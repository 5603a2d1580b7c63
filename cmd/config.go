package cmd

import (
	"time"

	"github.com/khanhnv2901/cyberaudit/internal/shared/constants"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	historyDriverSQLite = "sqlite"
	historyDriverMemory = "memory"
)

// CLIConfig captures runtime configuration shared across commands.
type CLIConfig struct {
	Scan    ScanRuntimeConfig
	History HistoryConfig
	Report  ReportConfig
}

// ScanRuntimeConfig consolidates flag-driven settings for the scan command.
type ScanRuntimeConfig struct {
	TLSTimeout  time.Duration
	PortTimeout time.Duration
	HTTPTimeout time.Duration
	DNSTimeout  time.Duration
	Nameservers []string
	Parallel    bool
	Concurrency int
	RateLimit   int
}

// HistoryConfig selects the scan history backend.
type HistoryConfig struct {
	Driver string
	Path   string // empty means <results_dir>/history.db
}

// ReportConfig holds PDF report options.
type ReportConfig struct {
	Brand string
}

type defaultOverrides struct {
	TLSTimeout    *time.Duration
	PortTimeout   *time.Duration
	HTTPTimeout   *time.Duration
	DNSTimeout    *time.Duration
	Nameservers   []string
	Parallel      *bool
	Concurrency   *int
	RateLimit     *int
	HistoryDriver string
	HistoryPath   string
	ReportBrand   string
}

var cliConfig = newCLIConfig()

func newCLIConfig() *CLIConfig {
	return &CLIConfig{
		Scan: ScanRuntimeConfig{
			TLSTimeout:  constants.TLSProbeTimeout,
			PortTimeout: constants.PortProbeTimeout,
			HTTPTimeout: constants.HTTPProbeTimeout,
			DNSTimeout:  constants.DNSProbeTimeout,
			Nameservers: []string{},
			Parallel:    false,
			Concurrency: constants.DefaultScanConcurrency,
			RateLimit:   constants.DefaultScanRateLimit,
		},
		History: HistoryConfig{
			Driver: historyDriverSQLite,
		},
		Report: ReportConfig{
			Brand: constants.DefaultBrand,
		},
	}
}

func durationOverride(key string) *time.Duration {
	if !viper.IsSet(key) {
		return nil
	}
	val := viper.GetDuration(key)
	if val <= 0 {
		return nil
	}
	return &val
}

func intOverride(key string) *int {
	if !viper.IsSet(key) {
		return nil
	}
	val := viper.GetInt(key)
	return &val
}

func loadDefaultOverrides() defaultOverrides {
	overrides := defaultOverrides{
		TLSTimeout:  durationOverride("defaults.tls_timeout"),
		PortTimeout: durationOverride("defaults.port_timeout"),
		HTTPTimeout: durationOverride("defaults.http_timeout"),
		DNSTimeout:  durationOverride("defaults.dns_timeout"),
		Concurrency: intOverride("defaults.concurrency"),
		RateLimit:   intOverride("defaults.rate_limit"),
	}

	if viper.IsSet("defaults.nameservers") {
		overrides.Nameservers = viper.GetStringSlice("defaults.nameservers")
	}

	if viper.IsSet("defaults.parallel") {
		val := viper.GetBool("defaults.parallel")
		overrides.Parallel = &val
	}

	if viper.IsSet("history.driver") {
		overrides.HistoryDriver = viper.GetString("history.driver")
	}

	if viper.IsSet("history.path") {
		overrides.HistoryPath = viper.GetString("history.path")
	}

	if viper.IsSet("report.brand") {
		overrides.ReportBrand = viper.GetString("report.brand")
	}

	return overrides
}

// applyConfigDefaults merges config file defaults into the runtime config when the user
// did not explicitly override the corresponding flag.
func applyConfigDefaults(cmd *cobra.Command) {
	overrides := loadDefaultOverrides()
	scanFlags := scanCmd.Flags()

	if overrides.TLSTimeout != nil {
		applyDurationDefault(scanFlags, "tls-timeout", *overrides.TLSTimeout, func(v time.Duration) {
			cliConfig.Scan.TLSTimeout = v
		})
	}
	if overrides.PortTimeout != nil {
		applyDurationDefault(scanFlags, "port-timeout", *overrides.PortTimeout, func(v time.Duration) {
			cliConfig.Scan.PortTimeout = v
		})
	}
	if overrides.HTTPTimeout != nil {
		applyDurationDefault(scanFlags, "http-timeout", *overrides.HTTPTimeout, func(v time.Duration) {
			cliConfig.Scan.HTTPTimeout = v
		})
	}
	if overrides.DNSTimeout != nil {
		applyDurationDefault(scanFlags, "dns-timeout", *overrides.DNSTimeout, func(v time.Duration) {
			cliConfig.Scan.DNSTimeout = v
		})
	}

	if len(overrides.Nameservers) > 0 {
		flag := scanFlags.Lookup("nameserver")
		if flag == nil || !flag.Changed {
			cliConfig.Scan.Nameservers = append([]string(nil), overrides.Nameservers...)
		}
	}

	if overrides.Parallel != nil {
		applyBoolDefault(scanFlags, "parallel", *overrides.Parallel, func(v bool) {
			cliConfig.Scan.Parallel = v
		})
	}

	if overrides.Concurrency != nil && *overrides.Concurrency > 0 {
		applyIntDefault(scanFlags, "concurrency", *overrides.Concurrency, func(v int) {
			cliConfig.Scan.Concurrency = v
		})
	}

	if overrides.RateLimit != nil && *overrides.RateLimit > 0 {
		applyIntDefault(scanFlags, "rate-limit", *overrides.RateLimit, func(v int) {
			cliConfig.Scan.RateLimit = v
		})
	}

	if overrides.HistoryDriver != "" && cmd != nil {
		setStringFlagIfUnset(cmd.Flags(), "history", overrides.HistoryDriver)
	}

	if overrides.HistoryPath != "" {
		cliConfig.History.Path = overrides.HistoryPath
	}

	if overrides.ReportBrand != "" {
		cliConfig.Report.Brand = overrides.ReportBrand
	}
}

func applyIntDefault(flags *pflag.FlagSet, name string, value int, setter func(int)) {
	if flags == nil || setter == nil {
		return
	}
	flag := flags.Lookup(name)
	if flag != nil && flag.Changed {
		return
	}
	setter(value)
}

func applyBoolDefault(flags *pflag.FlagSet, name string, value bool, setter func(bool)) {
	if flags == nil || setter == nil {
		return
	}
	flag := flags.Lookup(name)
	if flag != nil && flag.Changed {
		return
	}
	setter(value)
}

func applyDurationDefault(flags *pflag.FlagSet, name string, value time.Duration, setter func(time.Duration)) {
	if flags == nil || setter == nil {
		return
	}
	flag := flags.Lookup(name)
	if flag != nil && flag.Changed {
		return
	}
	setter(value)
}

func setStringFlagIfUnset(flags *pflag.FlagSet, name, value string) {
	if flags == nil {
		return
	}
	flag := flags.Lookup(name)
	if flag == nil || flag.Changed {
		return
	}
	_ = flag.Value.Set(value)
}
