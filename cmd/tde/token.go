package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"tde/internal/auth"
	"tde/internal/config"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage the API bearer token",
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Issue a new API token, replacing any existing one",
	RunE:  runTokenIssue,
}

var tokenRevokeCmd = &cobra.Command{
	Use:   "revoke",
	Short: "Revoke the current API token",
	RunE:  runTokenRevoke,
}

func init() {
	tokenCmd.AddCommand(tokenIssueCmd)
	tokenCmd.AddCommand(tokenRevokeCmd)
	rootCmd.AddCommand(tokenCmd)
}

func tokenStore() *auth.Store {
	return auth.NewStore(filepath.Join(projectRoot(), config.ConfigDir, "token.json"))
}

func runTokenIssue(cmd *cobra.Command, args []string) error {
	token, err := tokenStore().Issue()
	if err != nil {
		return err
	}

	// Only the hash is stored; the raw token is shown once.
	fmt.Println("API token issued. Store it now, it will not be shown again:")
	fmt.Printf("\n  %s\n\n", token)
	fmt.Println("Use it as: Authorization: Bearer <token>")
	return nil
}

func runTokenRevoke(cmd *cobra.Command, args []string) error {
	if err := tokenStore().Revoke(); err != nil {
		return err
	}
	fmt.Println("API token revoked.")
	return nil
}
