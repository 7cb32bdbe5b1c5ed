package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	cfgpkg "github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/config"
	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/logging"
)

var (
	// Global flags
	cfgFile string
	debug   bool
	// Telemetry flags (override config if set)
	flagLogLevel    string
	flagLogFormat   string
	flagMetricsFile string

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "csvhealth",
	Short: "Smart CSV Health Checker: score the quality of tabular datasets",
	Long: `csvhealth profiles CSV, TSV and XLSX files, runs a battery of data quality
detectors (missing values, duplicates, outliers, skew, correlation), trains an
isolation forest for multivariate anomalies and blends everything into a single
0-100 health score with issues and recommendations.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	// Initialize configuration before executing commands
	cobra.OnInitialize(loadConfig)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.csvhealth/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging (same as --log-level debug)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: trace|debug|info|warn|error (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "log format: text|json (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagMetricsFile, "metrics-file", "", "write prometheus metrics to this textfile after the run (overrides config)")
}

func loadConfig() {
	if _, err := settings(); err != nil {
		// Non-fatal: commands that need config report it again
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
	}
}

// settings returns the loaded configuration with CLI overrides applied,
// loading it on first use.
func settings() (*cfgpkg.Global, error) {
	if cfg != nil {
		return cfg, nil
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	// Apply CLI overrides if provided
	f := rootCmd.PersistentFlags()
	if f.Changed("log-level") && flagLogLevel != "" {
		c.LogLevel = flagLogLevel
	}
	if f.Changed("log-format") && flagLogFormat != "" {
		c.LogFormat = flagLogFormat
	}
	if f.Changed("metrics-file") {
		c.MetricsFile = flagMetricsFile
	}
	if debug {
		c.LogLevel = "debug"
	}
	cfg = c
	return cfg, nil
}

func newLogger(c *cfgpkg.Global) *logrus.Logger {
	return logging.New(logging.Options{Level: c.LogLevel, Format: c.LogFormat, Output: os.Stderr})
}
