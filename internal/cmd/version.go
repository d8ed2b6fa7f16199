package cmd

import (
	"github.com/spf13/cobra"

	"github.com/pdfstash/pdfstash/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the pdfstash version",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println("pdfstash " + version.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
