package main

import (
	"context"

	"github.com/spf13/cobra"

	"tde/internal/refactor"
)

var (
	refactorModule string
	planName       string
	applyBackup    bool
	applyRunTests  bool
	applyOverride  bool
)

var refactorCmd = &cobra.Command{
	Use:   "refactor",
	Short: "Identify, plan, and apply refactoring opportunities",
}

var opportunitiesCmd = &cobra.Command{
	Use:   "opportunities",
	Short: "List refactoring opportunities sorted by priority",
	Long: `List refactoring opportunities derived from the latest analysis.

Opportunities are regenerated on every call; their ids are stable, so an id
from one run can be applied in a later run as long as the underlying issue
still exists.

Examples:
  tde refactor opportunities
  tde refactor opportunities --module=api`,
	RunE: runOpportunities,
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Bundle critical/high opportunities into a named plan",
	RunE:  runPlan,
}

var applyCmd = &cobra.Command{
	Use:   "apply <opportunity-id>",
	Short: "Apply one refactoring opportunity",
	Long: `Apply one refactoring opportunity under the guarded-mutation protocol.

With --backup the affected files are snapshotted first and restored if the
mutation or the test run fails. Opportunities that are not auto-applicable
are rejected unless --override is passed.

Examples:
  tde refactor apply opp-1a2b3c4d5e6f7081 --backup --run-tests
  tde refactor apply opp-1a2b3c4d5e6f7081 --module=api --override`,
	Args: cobra.ExactArgs(1),
	RunE: runApply,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the refactoring apply history",
	RunE:  runHistory,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the refactoring apply history",
	RunE:  runStats,
}

func init() {
	refactorCmd.PersistentFlags().StringVar(&refactorModule, "module", "", "Restrict to one module")

	planCmd.Flags().StringVar(&planName, "name", "refactoring-plan", "Plan name")

	applyCmd.Flags().BoolVar(&applyBackup, "backup", true, "Snapshot affected files before mutating")
	applyCmd.Flags().BoolVar(&applyRunTests, "run-tests", false, "Run the test suite after mutating; failure rolls back")
	applyCmd.Flags().BoolVar(&applyOverride, "override", false, "Apply even when not auto-applicable")

	refactorCmd.AddCommand(opportunitiesCmd)
	refactorCmd.AddCommand(planCmd)
	refactorCmd.AddCommand(applyCmd)
	refactorCmd.AddCommand(historyCmd)
	refactorCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(refactorCmd)
}

func runOpportunities(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	eng := mustEngine(cfg, newLogger(cfg))
	defer eng.Close()

	opportunities, err := eng.Opportunities(context.Background(), refactorModule)
	if err != nil {
		return err
	}
	printResult(opportunities)
	return nil
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	eng := mustEngine(cfg, newLogger(cfg))
	defer eng.Close()

	plan, err := eng.CreatePlan(context.Background(), planName, refactorModule)
	if err != nil {
		return err
	}
	printResult(plan)
	return nil
}

func runApply(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	eng := mustEngine(cfg, newLogger(cfg))
	defer eng.Close()

	result, err := eng.ApplyRefactoring(context.Background(), refactor.ApplyRequest{
		OpportunityID: args[0],
		Module:        refactorModule,
		CreateBackup:  applyBackup,
		RunTests:      applyRunTests,
		Override:      applyOverride,
	})
	if err != nil {
		return err
	}
	printResult(result)
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	eng := mustEngine(cfg, newLogger(cfg))
	defer eng.Close()

	history, err := eng.RefactoringHistory()
	if err != nil {
		return err
	}
	printResult(history)
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	eng := mustEngine(cfg, newLogger(cfg))
	defer eng.Close()

	stats, err := eng.RefactoringStats()
	if err != nil {
		return err
	}
	printResult(stats)
	return nil
}
