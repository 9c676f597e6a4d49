package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"text/tabwriter"

	"github.com/nao1215/taxocrawl/internal/archive"
	"github.com/nao1215/taxocrawl/internal/config"
	"github.com/nao1215/taxocrawl/internal/log"
	"github.com/spf13/cobra"
)

// errNoBackups is returned by --restore when there is nothing to restore.
var errNoBackups = errors.New("no backup files found to roll back to")

// NewBackupsCmd creates the backups command.
func NewBackupsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backups",
		Short: "List or restore backups of a dimension file",
		Long: `Backups lists the archived copies of a dimension file, newest first.

With --restore the newest backup is moved back to the dimension file name,
the same rollback a crawl performs when writing fails.

Examples:
  # List backups of topics.xml
  taxocrawl backups -o /srv/search/dimensions -f topics.xml

  # Restore the newest backup
  taxocrawl backups -o /srv/search/dimensions -f topics.xml --restore

  # Output the list as JSON
  taxocrawl backups -c taxocrawl.yaml --json`,
		Args: cobra.NoArgs,
		RunE: runBackupsCmd,
	}

	addOutputFlags(cmd)
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .taxocrawl in current, XDG config or home directory)")
	cmd.Flags().Bool("restore", false, "Restore the newest backup as the dimension file")
	cmd.Flags().BoolP("json", "j", false, "Output the backup list in JSON format")

	return cmd
}

// runBackupsCmd executes the backups command.
func runBackupsCmd(cmd *cobra.Command, _ []string) error {
	cfg := config.NewConfig()
	if err := applyConfigFile(cmd, cfg); err != nil {
		return err
	}
	if err := applyOutputFlags(cmd, cfg); err != nil {
		return err
	}
	if err := cfg.ValidateOutput(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.New(cmd.ErrOrStderr(), getBoolFlag(cmd, "verbose"), getBoolFlag(cmd, "log-json"))
	manager := archive.NewManager(archive.WithLogger(logger))

	restore, err := cmd.Flags().GetBool("restore")
	if err != nil {
		return err
	}
	if restore {
		restored, err := manager.Rollback(cfg.OutputDir, cfg.FileName)
		if err != nil {
			return fmt.Errorf("failed to restore %s: %w", cfg.OutputPath(), err)
		}
		if restored == nil {
			return errNoBackups
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Restored %s from %s\n", cfg.OutputPath(), restored.Name)
		return nil
	}

	backups, err := manager.List(cfg.OutputDir, cfg.FileName)
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	slices.Reverse(backups)

	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	if jsonOutput {
		if backups == nil {
			backups = []archive.Backup{}
		}
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(backups)
	}
	return printBackups(cmd.OutOrStdout(), cfg.OutputPath(), backups)
}

// printBackups writes backups as an aligned table.
func printBackups(w io.Writer, path string, backups []archive.Backup) error {
	if len(backups) == 0 {
		_, err := fmt.Fprintf(w, "No backups of %s.\n", path)
		return err
	}

	fmt.Fprintf(w, "Backups of %s (newest first):\n\n", path)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSIZE\tMODIFIED")
	for _, b := range backups {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", b.Name, b.Size, b.ModTime.Format("2006-01-02 15:04:05"))
	}
	return tw.Flush()
}
