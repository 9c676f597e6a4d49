package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/nao1215/taxocrawl/internal/archive"
	"github.com/nao1215/taxocrawl/internal/config"
	"github.com/nao1215/taxocrawl/internal/database"
	"github.com/nao1215/taxocrawl/internal/fetch"
	"github.com/nao1215/taxocrawl/internal/log"
	"github.com/nao1215/taxocrawl/internal/model"
	"github.com/nao1215/taxocrawl/internal/pipeline"
	"github.com/nao1215/taxocrawl/internal/report"
	"github.com/spf13/cobra"
)

// defaultEnvFile is loaded before the configuration when it exists.
const defaultEnvFile = ".env"

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Fetch the taxonomy and regenerate the dimension file",
		Long: `Crawl downloads the taxonomy forest, flattens it into dimension nodes and
writes the external dimensions file.

A run performs these steps in order:
- Fetch the JSON forest with HTTP Basic authentication
- Flatten it depth-first, giving every node a fresh identifier
- Move the existing dimension file to <file>.backup.YYYY-MM-DD.HH-MM-SS
  and delete the oldest backups beyond --max-backups
- Write the new dimension file, restoring the newest backup on failure

If the service cannot be reached or returns no terms, nothing on disk is
changed.

Examples:
  # Crawl with credentials from TAXOCRAWL_USER and TAXOCRAWL_PASSWORD
  taxocrawl crawl --url https://taxonomy.example.com/api/terms \
    -o /srv/search/dimensions -f topics.xml -d Topics

  # Use a configuration file and print a Markdown report
  taxocrawl crawl -c taxocrawl.yaml --report markdown

  # Keep ten backups and go through a SOCKS5 proxy
  taxocrawl crawl -c taxocrawl.yaml --max-backups 10 --proxy 127.0.0.1:1080`,
		Args: cobra.NoArgs,
		RunE: runCrawlCmd,
	}

	// Source flags
	cmd.Flags().String("url", "", "Taxonomy service URL returning a JSON array of terms")
	cmd.Flags().StringP("user", "u", "", "User for HTTP Basic authentication (env: "+config.EnvUser+")")
	cmd.Flags().StringP("password", "p", "", "Password for HTTP Basic authentication (env: "+config.EnvPassword+")")
	cmd.Flags().StringP("dimension", "d", "", "Dimension name used as the root node")

	// Output flags
	addOutputFlags(cmd)
	cmd.Flags().Int("max-backups", config.DefaultMaxBackups, "Number of backups kept after the run")

	// Fetch flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Overall request timeout (0 waits indefinitely)")
	cmd.Flags().String("proxy", "", "SOCKS5 proxy address (host:port)")

	// Configuration
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .taxocrawl in current, XDG config or home directory)")
	cmd.Flags().String("env-file", defaultEnvFile, "Environment file loaded before the configuration")

	// Report flags
	cmd.Flags().String("report", config.DefaultReportFormat, "Run report format: text, markdown or json")
	cmd.Flags().String("report-file", "", "Write the run report to a file (creates directories if needed)")
	cmd.Flags().Bool("no-history", false, "Do not record the run in the history database")

	return cmd
}

// addOutputFlags registers the flags locating the dimension file.
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("output-dir", "o", "", "Existing directory holding the dimension file and its backups")
	cmd.Flags().StringP("file", "f", "", "Dimension file name")
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildCrawlConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.New(cmd.ErrOrStderr(), cfg.Verbose, cfg.LogJSON)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runCrawl(ctx, cfg, cmd.OutOrStdout(), logger)
}

// getBoolFlag retrieves a bool flag from the command or the root persistent flags.
func getBoolFlag(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		v, err = cmd.Root().PersistentFlags().GetBool(name)
		if err != nil {
			return false
		}
	}
	return v
}

// loadEnvFile loads path into the process environment without overriding
// variables that are already set. A missing file is only an error when
// the user asked for it.
func loadEnvFile(cmd *cobra.Command) error {
	path, err := cmd.Flags().GetString("env-file")
	if err != nil || path == "" {
		return err
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("env-file") {
			return nil
		}
		return fmt.Errorf("failed to load environment file %s: %w", path, err)
	}
	return nil
}

// applyConfigFile finds the configuration file and copies its values onto cfg.
// If the user explicitly specified a path, it is an error if it is missing.
func applyConfigFile(cmd *cobra.Command, cfg *config.Config) error {
	var err error
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return err
	}

	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	if configPath == "" {
		if cfg.ConfigFilePath != "" {
			return fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
		}
		return nil
	}

	file, err := config.LoadConfigFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config file %s: %w", configPath, err)
	}
	file.ApplyTo(cfg)
	return nil
}

// applyOutputFlags copies the output directory and file name flags onto cfg.
func applyOutputFlags(cmd *cobra.Command, cfg *config.Config) error {
	for name, dst := range map[string]*string{
		"output-dir": &cfg.OutputDir,
		"file":       &cfg.FileName,
	} {
		if !cmd.Flags().Changed(name) {
			continue
		}
		v, err := cmd.Flags().GetString(name)
		if err != nil {
			return err
		}
		*dst = v
	}
	return nil
}

// buildCrawlConfig creates a Config from the environment, the configuration
// file and the command flags, in increasing order of precedence.
func buildCrawlConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getBoolFlag(cmd, "verbose")
	cfg.LogJSON = getBoolFlag(cmd, "log-json")

	if err := loadEnvFile(cmd); err != nil {
		return nil, err
	}
	if err := applyConfigFile(cmd, cfg); err != nil {
		return nil, err
	}
	if err := applyOutputFlags(cmd, cfg); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	for name, dst := range map[string]*string{
		"url":         &cfg.URL,
		"user":        &cfg.User,
		"password":    &cfg.Password,
		"dimension":   &cfg.Dimension,
		"proxy":       &cfg.ProxyAddress,
		"report":      &cfg.ReportFormat,
		"report-file": &cfg.ReportFile,
	} {
		if !flags.Changed(name) {
			continue
		}
		v, err := flags.GetString(name)
		if err != nil {
			return nil, err
		}
		*dst = v
	}

	var err error
	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("max-backups") {
		if cfg.MaxBackups, err = flags.GetInt("max-backups"); err != nil {
			return nil, err
		}
	}

	noHistory, err := flags.GetBool("no-history")
	if err != nil {
		return nil, err
	}
	if noHistory {
		cfg.SaveHistory = false
	}

	cfg.ApplyEnv()
	return cfg, nil
}

// runCrawl executes one crawl and reports its outcome. Only fatal errors
// and cancellation are returned; a failed fetch or a rolled-back write is
// reported but ends the command successfully.
func runCrawl(ctx context.Context, cfg *config.Config, out io.Writer, logger *slog.Logger) error {
	fetcher, err := fetch.New(cfg.User, cfg.Password,
		fetch.WithTimeout(cfg.Timeout),
		fetch.WithProxy(cfg.ProxyAddress),
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
		fetch.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("failed to create fetcher: %w", err)
	}

	manager := archive.NewManager(
		archive.WithMaxBackups(cfg.MaxBackups),
		archive.WithLogger(logger),
	)

	p := pipeline.DefaultPipeline(fetcher, manager, []pipeline.Option{pipeline.WithLogger(logger)})

	run := model.NewRun(cfg.Dimension, cfg.URL, cfg.OutputDir, cfg.FileName)
	logger.Info("starting crawl",
		"dimension", cfg.Dimension,
		"url", log.SanitizeString(cfg.URL),
		"path", cfg.OutputPath(),
		"maxBackups", cfg.MaxBackups,
	)

	execErr := p.Execute(ctx, run)

	logger.Info("crawl finished",
		"dimension", run.Dimension,
		"status", run.Status.String(),
		"nodes", run.NodeCount,
		"elapsed", model.FormatElapsed(run.Elapsed()),
	)

	if cfg.SaveHistory {
		// The run is recorded even after an interrupt.
		if err := recordRun(context.WithoutCancel(ctx), cfg.DBDir, run, logger); err != nil {
			logger.Error("failed to record run", "op", "history", "dir", cfg.DBDir, "error", err)
		}
	}

	if err := outputReport(cfg, out, run); err != nil {
		logger.Error("report failed", "op", "report", "path", cfg.ReportFile, "error", err)
	}

	if execErr != nil {
		if pipeline.IsFatal(execErr) {
			logger.Error("crawl aborted", "path", run.OutputPath(), "error", execErr)
		}
		return execErr
	}
	return nil
}

// recordRun saves run in the history database in dbDir. When the new file
// matches the last completed run of the same dimension, it says so.
func recordRun(ctx context.Context, dbDir string, run *model.Run, logger *slog.Logger) error {
	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if run.Status.Succeeded() {
		prev, err := db.LatestCompletedRun(ctx, run.Dimension)
		if err != nil {
			return err
		}
		if prev != nil && prev.Checksum == run.Checksum {
			logger.Info("dimension file unchanged since previous run",
				"dimension", run.Dimension,
				"previousRun", prev.ID,
				"checksum", run.Checksum,
			)
		}
	}

	if err := db.SaveRun(ctx, run); err != nil {
		return err
	}
	logger.Debug("run recorded", "id", run.ID, "path", db.Path())
	return nil
}

// newReportWriter returns the report writer for format.
func newReportWriter(format string, w io.Writer, verbose bool) report.Writer {
	switch format {
	case config.ReportFormatJSON:
		return report.NewJSONWriter(w, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case config.ReportFormatMarkdown:
		return report.NewMarkdownWriter(w)
	default:
		return report.NewSimpleWriter(w, report.WithVerbose(verbose))
	}
}

// outputReport writes the run report to the report file, or to out.
func outputReport(cfg *config.Config, out io.Writer, run *model.Run) error {
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create report directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		defer f.Close()
		out = f
	}

	_, err := newReportWriter(cfg.ReportFormat, out, cfg.Verbose).Write(run)
	return err
}
