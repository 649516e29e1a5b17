package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"tde/internal/config"
	"tde/internal/errors"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize TDE configuration",
	Long:  "Creates a .tde/ directory with default configuration in the project root",
	RunE:  runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Force reinitialization (removes existing .tde directory)")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	root := projectRoot()

	tdeDir := filepath.Join(root, config.ConfigDir)
	if _, statErr := os.Stat(tdeDir); statErr == nil {
		if !initForce {
			// Idempotent: already initialized is success (CI-friendly)
			fmt.Println("TDE already initialized.")
			fmt.Printf("Configuration at: %s\n", filepath.Join(tdeDir, "config.json"))
			fmt.Println("\nRun 'tde init --force' to reinitialize.")
			return nil
		}
		if removeErr := os.RemoveAll(tdeDir); removeErr != nil {
			return errors.Wrap(errors.InternalError, "failed to remove existing .tde directory", removeErr)
		}
	}

	cfg := config.DefaultConfig()
	cfg.ProjectRoot = root
	if err := cfg.Save(root); err != nil {
		return err
	}

	fmt.Printf("Initialized TDE in %s\n", tdeDir)
	fmt.Printf("Configuration at: %s\n", filepath.Join(tdeDir, "config.json"))
	fmt.Println("\nNext steps:")
	fmt.Println("  tde analyze              score the project")
	fmt.Println("  tde refactor opportunities   list candidate refactorings")
	fmt.Println("  tde deps analysis        audit dependencies")
	return nil
}
