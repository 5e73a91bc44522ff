package cmd

import (
	"fmt"
	"os"

	cfgpkg "github.com/KaramelBytes/gigstats-cli/internal/config"
	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile     string
	dataPath    string
	debug       bool
	maxRows     int
	thousandSep string
	sheetName   string
	// Retry/HTTP flags (override config if set)
	flagHTTPTimeoutSec   int
	flagRetryMaxAttempts int
	flagRetryBaseDelayMs int
	flagRetryMaxDelayMs  int

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "gigstats",
	Short: "gigstats: ask questions about freelancer earnings data",
	Long: `gigstats loads a CSV of freelancer engagements, runs a fixed set of earnings
statistics over it and asks a local (Ollama) or hosted (OpenRouter) model to
explain the results in plain language.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(setupLogging, loadConfig)

	f := rootCmd.PersistentFlags()
	f.StringVar(&cfgFile, "config", "", "config file (default is ~/.gigstats/config.yaml)")
	f.StringVar(&dataPath, "data", "", "dataset CSV/TSV/XLSX path (overrides config data_path)")
	f.BoolVar(&debug, "debug", false, "enable debug logging")
	f.IntVar(&maxRows, "max-rows", 0, "load at most this many rows (0 = all)")
	f.StringVar(&sheetName, "sheet", "", "worksheet name for .xlsx datasets (default first sheet)")
	f.StringVar(&thousandSep, "thousands-sep", "", "thousands separator accepted in numeric cells (e.g. ',')")
	f.IntVar(&flagHTTPTimeoutSec, "http-timeout", 0, "HTTP client timeout in seconds (overrides config)")
	f.IntVar(&flagRetryMaxAttempts, "retry-max", 0, "max retry attempts on 429/5xx (overrides config)")
	f.IntVar(&flagRetryBaseDelayMs, "retry-base-ms", 0, "base retry backoff in ms (overrides config)")
	f.IntVar(&flagRetryMaxDelayMs, "retry-max-ms", 0, "max retry backoff cap in ms (overrides config)")
}

func setupLogging() {
	log.SetHandler(cli.Default)
	if debug {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: allow running commands that don't need config
		log.WithError(err).Warn("failed to load config")
		return
	}
	cfg = c
	log.WithField("config", cfgFile).Debug("configuration loaded")

	f := rootCmd.PersistentFlags()
	if f.Changed("http-timeout") && flagHTTPTimeoutSec > 0 {
		cfg.HTTPTimeoutSec = flagHTTPTimeoutSec
	}
	if f.Changed("retry-max") && flagRetryMaxAttempts > 0 {
		cfg.RetryMaxAttempts = flagRetryMaxAttempts
	}
	if f.Changed("retry-base-ms") && flagRetryBaseDelayMs > 0 {
		cfg.RetryBaseDelayMs = flagRetryBaseDelayMs
	}
	if f.Changed("retry-max-ms") && flagRetryMaxDelayMs > 0 {
		cfg.RetryMaxDelayMs = flagRetryMaxDelayMs
	}
}
