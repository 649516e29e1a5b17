package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"tde/internal/api"
	"tde/internal/auth"
	"tde/internal/config"
)

var (
	serveAddr string
	serveAuth bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the TDE HTTP API server, exposing quality reports, refactoring
operations, and dependency audits over REST. With --auth (or authEnabled in
the server config), every request except /health must carry a bearer token
issued by "tde token issue".`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Address to listen on (overrides config)")
	serveCmd.Flags().BoolVar(&serveAuth, "auth", false, "Require bearer-token authentication")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	logger := newLogger(cfg)

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	var tokens *auth.Store
	if serveAuth || cfg.Server.AuthEnabled {
		tokens = auth.NewStore(filepath.Join(cfg.ProjectRoot, config.ConfigDir, "token.json"))
	}

	eng := mustEngine(cfg, logger)
	defer eng.Close()

	server := api.NewServer(addr, eng, tokens, logger)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting TDE HTTP API server", map[string]interface{}{
			"addr": addr,
			"auth": tokens != nil,
		})
		fmt.Printf("TDE HTTP API server listening on http://%s\n", addr)
		fmt.Println("Press Ctrl+C to stop")
		serverErr <- server.Start()
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			logger.Error("Server error", map[string]interface{}{
				"error": err.Error(),
			})
			return err
		}
	case sig := <-shutdown:
		logger.Info("Received shutdown signal", map[string]interface{}{
			"signal": sig.String(),
		})

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Error during shutdown", map[string]interface{}{
				"error": err.Error(),
			})
			return err
		}

		logger.Info("Server stopped gracefully", nil)
	}

	return nil
}
