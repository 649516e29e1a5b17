package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"tde/internal/quality"
)

var (
	analyzeIncludeTests bool
	analyzeDepth        string
	analyzeModules      string
	analyzeMetricsOnly  bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [module]",
	Short: "Score code quality for a module or the whole project",
	Long: `Score code quality by scanning the source tree for issues and
aggregating them into weighted per-module and project scores.

Examples:
  tde analyze
  tde analyze api
  tde analyze --depth=deep --include-tests
  tde analyze --modules=api,core --format=yaml
  tde analyze --metrics`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeIncludeTests, "include-tests", false, "Scan test files too")
	analyzeCmd.Flags().StringVar(&analyzeDepth, "depth", "", "Analysis depth: shallow, normal, or deep")
	analyzeCmd.Flags().StringVar(&analyzeModules, "modules", "", "Comma-separated module subset")
	analyzeCmd.Flags().BoolVar(&analyzeMetricsOnly, "metrics", false, "Print the compact metrics view")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	logger := newLogger(cfg)
	eng := mustEngine(cfg, logger)
	defer eng.Close()

	opts := quality.Options{
		IncludeTests: analyzeIncludeTests,
		Depth:        analyzeDepth,
	}
	if analyzeModules != "" {
		opts.Modules = strings.Split(analyzeModules, ",")
	}

	ctx := context.Background()

	if analyzeMetricsOnly {
		metrics, err := eng.Metrics(ctx, opts)
		if err != nil {
			return err
		}
		printResult(metrics)
		return nil
	}

	if len(args) == 1 {
		report, err := eng.AnalyzeModule(ctx, args[0], opts)
		if err != nil {
			return err
		}
		printResult(report)
		return nil
	}

	report, err := eng.AnalyzeProject(ctx, opts)
	if err != nil {
		return err
	}
	printResult(report)
	return nil
}
