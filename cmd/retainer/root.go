package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/raoulx24/retainer/internal/config"
	"github.com/raoulx24/retainer/internal/logging"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "retainer",
	Short: "Retainer - age-based directory retention and migration",
	Long: `Retainer deletes, archives or evicts files by age.

Tasks are declared in a YAML config file and run on cron schedules by the
daemon (retainer run) or once on demand (retainer sweep). The delete, migrate,
evict and list commands work on any directory without a config file.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig loads the config file and the logger it describes.
func loadConfig(cmd *cobra.Command) (*config.Config, *logging.SlogLogger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	log, err := logging.New(level, cfg.Logging.Format, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

// cliLogger is the logger for commands that run without a config file.
func cliLogger(cmd *cobra.Command) logging.Logger {
	level := "warn"
	if verbose {
		level = "debug"
	}
	log, err := logging.New(level, "text", cmd.ErrOrStderr())
	if err != nil {
		return logging.Discard()
	}
	return log
}
