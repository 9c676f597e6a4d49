package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/taxocrawl/internal/config"
	"github.com/nao1215/taxocrawl/internal/database"
	"github.com/nao1215/taxocrawl/internal/report"
	"github.com/spf13/cobra"
)

// defaultHistoryLimit is the number of runs listed without --limit.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
// This command lists crawl runs stored in the history database.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded crawl runs",
		Long: `History lists the crawl runs recorded in the history database, newest first.

Each crawl records its dimension, status, node count, the backup it created
and the checksum of the file it wrote. Use 'taxocrawl crawl --no-history'
to skip recording.

Examples:
  # List the last 20 runs
  taxocrawl history

  # List every run of the Topics dimension
  taxocrawl history --dimension Topics --limit 0

  # Show one run in detail
  taxocrawl history --id 42

  # List the dimensions that have been crawled
  taxocrawl history --list-dimensions

  # Output as Markdown with a chart of run outcomes
  taxocrawl history --markdown`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().StringP("dimension", "d", "", "Only list runs of this dimension")
	cmd.Flags().IntP("limit", "n", defaultHistoryLimit, "Maximum number of runs (0 lists all)")
	cmd.Flags().Int64P("id", "i", 0, "Show the run with this ID")
	cmd.Flags().BoolP("list-dimensions", "L", false, "List all crawled dimensions")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .taxocrawl in current, XDG config or home directory)")

	cmd.Flags().BoolP("json", "j", false,
		"Output in JSON format (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output in Markdown format (mutually exclusive with --json)")
	cmd.MarkFlagsMutuallyExclusive("json", "markdown")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	cfg := config.NewConfig()
	if err := applyConfigFile(cmd, cfg); err != nil {
		return err
	}

	flags := cmd.Flags()
	dimension, err := flags.GetString("dimension")
	if err != nil {
		return err
	}
	limit, err := flags.GetInt("limit")
	if err != nil {
		return err
	}
	id, err := flags.GetInt64("id")
	if err != nil {
		return err
	}
	listDimensions, err := flags.GetBool("list-dimensions")
	if err != nil {
		return err
	}
	writer, err := historyWriter(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	// Reading history never creates the database.
	if _, err := os.Stat(filepath.Join(cfg.DBDir, database.FileName)); errors.Is(err, os.ErrNotExist) {
		if listDimensions {
			_, err := fmt.Fprintln(out, "No dimensions recorded.")
			return err
		}
		if id != 0 {
			return fmt.Errorf("run %d not found", id)
		}
		_, err := writer.WriteHistory(nil)
		return err
	}

	db, err := database.Open(cfg.DBDir, database.Options{EnableWAL: true})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()

	if listDimensions {
		dimensions, err := db.ListDimensions(ctx)
		if err != nil {
			return err
		}
		if len(dimensions) == 0 {
			_, err := fmt.Fprintln(out, "No dimensions recorded.")
			return err
		}
		for _, d := range dimensions {
			fmt.Fprintln(out, d)
		}
		return nil
	}

	if id != 0 {
		run, err := db.GetRun(ctx, id)
		if err != nil {
			return err
		}
		if run == nil {
			return fmt.Errorf("run %d not found", id)
		}
		_, err = writer.Write(run)
		return err
	}

	runs, err := db.ListRuns(ctx, dimension, limit)
	if err != nil {
		return err
	}
	_, err = writer.WriteHistory(runs)
	return err
}

// historyWriter returns the report writer selected by --json and --markdown.
func historyWriter(cmd *cobra.Command) (report.Writer, error) {
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}
	markdownOutput, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	format := config.ReportFormatText
	switch {
	case jsonOutput:
		format = config.ReportFormatJSON
	case markdownOutput:
		format = config.ReportFormatMarkdown
	}
	return newReportWriter(format, cmd.OutOrStdout(), getBoolFlag(cmd, "verbose")), nil
}

