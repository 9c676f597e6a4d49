package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for taxocrawl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "taxocrawl",
		Short: "Export a taxonomy service as an external dimensions file",
		Long: `taxocrawl fetches a taxonomy forest from an HTTP endpoint protected by
Basic authentication and writes it as an external_dimensions XML file.

Each run archives the previous dimension file as a timestamped backup,
keeps the most recent backups and restores the newest one if the new
file cannot be written.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON lines")

	// Add subcommands
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewBackupsCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
