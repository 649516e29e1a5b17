package main

import (
	"context"

	"github.com/spf13/cobra"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show a combined project health snapshot",
	Long: `Compose the project quality score, top refactoring opportunities,
refactoring statistics, and the dependency report into a single view.`,
	RunE: runDashboard,
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}

func runDashboard(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	eng := mustEngine(cfg, newLogger(cfg))
	defer eng.Close()

	dash, err := eng.Dashboard(context.Background())
	if err != nil {
		return err
	}
	printResult(dash)
	return nil
}
