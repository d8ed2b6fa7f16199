package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdfstash/pdfstash/internal/config"
	"github.com/pdfstash/pdfstash/internal/observability"
	"github.com/pdfstash/pdfstash/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	Long: `Run the pdfstash HTTP server.

Configuration comes from the optional --config file and environment
variables (PORT, SESSION_SECRET, GITHUB_CLIENT_ID, GITHUB_CLIENT_SECRET,
FRONTEND_URL).`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx, cfgFile)
	if err != nil {
		observability.Logger.Error("Failed to load configuration", zap.Error(err))
		return err
	}

	srv := server.New(observability.Logger, cfg)

	if err := srv.Start(ctx); err != nil {
		observability.Logger.Error("Server failed", zap.Error(err))
		return err
	}
	return nil
}
