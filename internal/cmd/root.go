// Package cmd implements the pdfstash command line interface.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/pdfstash/pdfstash/internal/observability"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "pdfstash",
	Short: "PDF storage backed by a GitHub repository",
	Long: `pdfstash serves an authenticated HTTP API for uploading, listing, and
deleting PDF files, using each user's GitHub repository as the backing
object store.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return observability.Init(logLevel, logFormat)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to config file (optional)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "json", "Log format (json, console)")
}

// Execute runs the root command.
func Execute() error {
	defer observability.Sync()
	return rootCmd.Execute()
}
