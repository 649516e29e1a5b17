package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"tde/internal/deps"
)

var (
	updateStrategy string
	updatePackages string
	updateBackup   bool
	updateRunTests bool
	updateContinue bool
)

var depsCmd = &cobra.Command{
	Use:   "deps",
	Short: "Audit and update third-party dependencies",
}

var depsReportCmd = &cobra.Command{
	Use:   "report",
	Short: "Merge the manifest, vulnerability, outdated, and unused probes into one report",
	RunE:  runDepsReport,
}

var depsVulnsCmd = &cobra.Command{
	Use:   "vulnerabilities",
	Short: "Run just the vulnerability probe",
	RunE:  runDepsVulns,
}

var depsOutdatedCmd = &cobra.Command{
	Use:   "outdated",
	Short: "Run just the outdated-package probe",
	RunE:  runDepsOutdated,
}

var depsAnalysisCmd = &cobra.Command{
	Use:   "analysis",
	Short: "Audit dependencies and derive update recommendations",
	RunE:  runDepsAnalysis,
}

var depsUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Apply dependency updates per a strategy",
	Long: `Apply dependency updates filtered by strategy:

  conservative  patch updates and critical vulnerability fixes only
  moderate      anything that is not a major version jump
  aggressive    every recommendation
  manual        nothing is applied; use this to preview

Packages are installed one at a time. With --run-tests, a failing suite after
the batch marks every update failed and restores the manifest from backup.

Examples:
  tde deps update --strategy=conservative --backup --run-tests
  tde deps update --strategy=moderate --packages=express,lodash`,
	RunE: runDepsUpdate,
}

func init() {
	depsUpdateCmd.Flags().StringVar(&updateStrategy, "strategy", "conservative",
		"Update strategy: conservative, moderate, aggressive, or manual")
	depsUpdateCmd.Flags().StringVar(&updatePackages, "packages", "", "Comma-separated package allow-list")
	depsUpdateCmd.Flags().BoolVar(&updateBackup, "backup", true, "Snapshot the manifest before installing")
	depsUpdateCmd.Flags().BoolVar(&updateRunTests, "run-tests", false, "Run the test suite after the batch")
	depsUpdateCmd.Flags().BoolVar(&updateContinue, "continue-on-failure", false,
		"Keep installing after a failed package instead of stopping")

	depsCmd.AddCommand(depsReportCmd)
	depsCmd.AddCommand(depsVulnsCmd)
	depsCmd.AddCommand(depsOutdatedCmd)
	depsCmd.AddCommand(depsAnalysisCmd)
	depsCmd.AddCommand(depsUpdateCmd)
	rootCmd.AddCommand(depsCmd)
}

func runDepsReport(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	eng := mustEngine(cfg, newLogger(cfg))
	defer eng.Close()

	report, err := eng.AnalyzeDependencies(context.Background())
	if err != nil {
		return err
	}
	printResult(report)
	return nil
}

func runDepsVulns(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	eng := mustEngine(cfg, newLogger(cfg))
	defer eng.Close()

	printResult(eng.Vulnerabilities(context.Background()))
	return nil
}

func runDepsOutdated(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	eng := mustEngine(cfg, newLogger(cfg))
	defer eng.Close()

	printResult(eng.OutdatedPackages(context.Background()))
	return nil
}

func runDepsAnalysis(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	eng := mustEngine(cfg, newLogger(cfg))
	defer eng.Close()

	analysis, err := eng.FullDependencyAnalysis(context.Background())
	if err != nil {
		return err
	}
	printResult(analysis)
	return nil
}

func runDepsUpdate(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	eng := mustEngine(cfg, newLogger(cfg))
	defer eng.Close()

	opts := deps.UpdateOptions{
		Strategy:          deps.Strategy(updateStrategy),
		CreateBackup:      updateBackup,
		RunTests:          updateRunTests,
		ContinueOnFailure: updateContinue,
	}
	if updatePackages != "" {
		opts.Packages = strings.Split(updatePackages, ",")
	}

	updates, err := eng.UpdateDependencies(context.Background(), opts)
	if err != nil {
		return err
	}
	printResult(updates)
	return nil
}
