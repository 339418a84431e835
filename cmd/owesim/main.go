// owesim runs a tile-based settlement simulation.
//
// Usage:
//
//	owesim run                  - Run the simulation with the HTTP API
//	owesim sweep --count 3      - Run whole sweeps offline and print a report
//	owesim path 0,0 5,7         - Find a walking route on a fresh world
//	owesim config               - Print the embedded default configuration
//
// Global flags:
//
//	--config <path>     - Configuration file (default: search order)
//	--seed <value>      - Override the world seed (0 = random)
//	--log-level <level> - debug, info, warn or error
//	--log-format <fmt>  - text, json or pretty
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/talgya/owe/internal/config"
)

var (
	// Global flags
	flagConfig    string
	flagSeed      int64
	flagLogLevel  string
	flagLogFormat string

	// cfg is loaded before any subcommand runs.
	cfg config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "owesim",
	Short: "owesim - a tile-based settlement simulation",
	Long: `owesim generates a grid world, lays out a small settlement and
advances it one cell per tick with a sweeping cursor.

Configuration is read from the first of:
  --config <path>
  ~/.owe/config.yaml
  configs/owe.yaml
  the embedded defaults

Examples:
  owesim run
  owesim run --config configs/owe.yaml --log-format pretty
  owesim sweep --count 5 --seed 42
  owesim path 0,0 12,9`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "World seed (overrides the configuration when set)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (overrides the configuration)")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "Log format: text, json or pretty")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(pathCmd)
	rootCmd.AddCommand(configCmd)
}

// setup loads the configuration, applies flag overrides and installs the
// default logger.
func setup(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("seed") {
		loaded.World.Seed = flagSeed
	}
	if flagLogLevel != "" {
		loaded.Log.Level = flagLogLevel
	}
	if flagLogFormat != "" {
		loaded.Log.Format = flagLogFormat
	}
	if err := loaded.Validate(); err != nil {
		return err
	}
	cfg = loaded

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	slog.Debug("configuration loaded", "source", cfg.Source)
	return nil
}

// newLogger builds the default slog logger. The pretty format renders
// through charmbracelet/log, which is itself a slog.Handler.
func newLogger(c config.LogConfig) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return nil, fmt.Errorf("log level %q: %w", c.Level, err)
	}

	var handler slog.Handler
	switch c.Format {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	case "pretty":
		handler = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			TimeFormat:      time.TimeOnly,
			Level:           log.Level(level),
			Prefix:          "owe",
		})
	default:
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	return slog.New(handler), nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the embedded default configuration",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Print(string(config.DefaultYAML()))
	},
}
