package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tde/internal/config"
	"tde/internal/engine"
	"tde/internal/logging"
	"tde/internal/version"
)

var (
	// rootFlag is the --project-root flag value; empty means the working directory
	rootFlag string

	// formatFlag selects the output serialization: json or yaml
	formatFlag string

	// logLevelFlag overrides the configured log level
	logLevelFlag string
)

var rootCmd = &cobra.Command{
	Use:   "tde",
	Short: "TDE - Technical Debt Engine",
	Long: `TDE (Technical Debt Engine) scans a source tree for quality issues,
scores modules and the whole project, turns issues into prioritized refactoring
opportunities that can be safely applied with backup and rollback, and audits
the third-party dependency graph for vulnerabilities and staleness.`,
	Version: version.Version,
}

func init() {
	rootCmd.SetVersionTemplate("TDE version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&rootFlag, "project-root", "",
		"Project root to analyze (default: current directory)")
	rootCmd.PersistentFlags().StringVar(&formatFlag, "format", "json",
		"Output format: json or yaml")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "",
		"Log level: debug, info, warn, or error (default: from config)")
}

// projectRoot resolves the effective project root
func projectRoot() string {
	if rootFlag != "" {
		return rootFlag
	}
	wd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return wd
}

// mustLoadConfig loads the engine configuration or exits
func mustLoadConfig() *config.Config {
	cfg, err := config.Load(projectRoot())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: load config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// newLogger builds a logger from config plus CLI overrides
func newLogger(cfg *config.Config) *logging.Logger {
	level := cfg.Logging.Level
	if logLevelFlag != "" {
		level = logLevelFlag
	}
	return logging.NewLogger(logging.Config{
		Format: logging.Format(cfg.Logging.Format),
		Level:  logging.LogLevel(level),
	})
}

// mustEngine wires the engine or exits
func mustEngine(cfg *config.Config, logger *logging.Logger) *engine.Engine {
	eng, err := engine.New(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return eng
}

// printResult writes v to stdout in the selected format
func printResult(v interface{}) {
	switch formatFlag {
	case "yaml":
		if err := engine.Export(os.Stdout, v, engine.FormatYAML); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	default:
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
}
