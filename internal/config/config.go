package config

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/nao1215/taxocrawl/internal/fetch"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "taxocrawl"

	// DefaultTimeout of zero keeps the HTTP client default, which never
	// times out. The taxonomy service can take minutes to render a large
	// vocabulary.
	DefaultTimeout time.Duration = 0

	// DefaultMaxBackups is how many backups survive a prune.
	DefaultMaxBackups = 5

	// DefaultReportFormat is the format of the run report.
	DefaultReportFormat = ReportFormatText

	// DefaultHistoryDBDirName is the sub directory of the XDG data
	// directory that holds the run history.
	DefaultHistoryDBDirName = "history"
)

// Report formats accepted by --report.
const (
	ReportFormatText     = "text"
	ReportFormatMarkdown = "markdown"
	ReportFormatJSON     = "json"
)

// Environment variables consulted for credentials.
const (
	EnvUser     = "TAXOCRAWL_USER"
	EnvPassword = "TAXOCRAWL_PASSWORD"
)

// Config holds all configuration options for a crawl.
// It is populated from environment, config file and CLI flags, in that
// order of increasing precedence, and passed down explicitly.
type Config struct {
	// URL is the taxonomy service endpoint returning the JSON forest.
	URL string

	// User and Password are sent with HTTP Basic authentication.
	User     string
	Password string

	// OutputDir is the existing directory that receives the dimension file
	// and its backups.
	OutputDir string

	// FileName is the dimension file name inside OutputDir.
	FileName string

	// Dimension is the name of the synthetic root node.
	Dimension string

	// Timeout bounds the whole HTTP exchange. Zero means no timeout.
	Timeout time.Duration

	// ProxyAddress is an optional SOCKS5 proxy in host:port form.
	ProxyAddress string

	// UserAgent is sent with the fetch request.
	UserAgent string

	// MaxBodySize caps the response size. Zero keeps the fetcher default.
	MaxBodySize int64

	// MaxBackups is the retention threshold for backups.
	MaxBackups int

	// ReportFormat selects the run report: text, markdown or json.
	ReportFormat string

	// ReportFile writes the report to a file instead of stdout.
	ReportFile string

	// Verbose enables debug logging.
	Verbose bool

	// LogJSON switches logging to JSON lines.
	LogJSON bool

	// ConfigFilePath is the explicit path of the YAML config file.
	ConfigFilePath string

	// DBDir is the directory holding the run history database.
	// Defaults to the XDG data directory.
	DBDir string

	// SaveHistory records the run in the history database.
	SaveHistory bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Timeout:      DefaultTimeout,
		UserAgent:    fetch.DefaultUserAgent,
		MaxBodySize:  fetch.DefaultMaxBodySize,
		MaxBackups:   DefaultMaxBackups,
		ReportFormat: DefaultReportFormat,
		DBDir:        filepath.Join(XDGDataDir(), DefaultHistoryDBDirName),
		SaveHistory:  true,
	}
}

// ApplyEnv fills empty credentials from TAXOCRAWL_USER and
// TAXOCRAWL_PASSWORD.
func (c *Config) ApplyEnv() {
	if c.User == "" {
		c.User = os.Getenv(EnvUser)
	}
	if c.Password == "" {
		c.Password = os.Getenv(EnvPassword)
	}
}

// OutputPath returns the full path of the dimension file.
func (c *Config) OutputPath() string {
	return filepath.Join(c.OutputDir, c.FileName)
}

// XDGDataDir returns the XDG data directory for taxocrawl.
// On Linux: ~/.local/share/taxocrawl
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for taxocrawl.
// On Linux: ~/.config/taxocrawl
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid and returns the first
// problem found.
func (c *Config) Validate() error {
	if c.URL == "" {
		return ErrNoURL
	}
	if !isHTTPURL(c.URL) {
		return ErrInvalidURL
	}

	if err := c.validateOutput(); err != nil {
		return err
	}

	if strings.TrimSpace(c.Dimension) == "" {
		return ErrNoDimension
	}

	if c.Timeout < 0 {
		return ErrInvalidTimeout
	}

	if c.MaxBackups < 1 {
		return ErrInvalidMaxBackups
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	switch c.ReportFormat {
	case ReportFormatText, ReportFormatMarkdown, ReportFormatJSON:
	default:
		return ErrInvalidReportFormat
	}

	if c.ProxyAddress != "" && !fetch.IsValidProxyAddress(c.ProxyAddress) {
		return ErrInvalidProxyAddress
	}

	return nil
}

// ValidateOutput checks only the output directory and file name. The
// backups command needs nothing else.
func (c *Config) ValidateOutput() error {
	return c.validateOutput()
}

func (c *Config) validateOutput() error {
	if c.OutputDir == "" {
		return ErrNoOutputDir
	}
	info, err := os.Stat(c.OutputDir)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrOutputDirNotFound
		}
		return err
	}
	if !info.IsDir() {
		return ErrOutputNotDirectory
	}

	if c.FileName == "" {
		return ErrNoFileName
	}
	if c.FileName == "." || c.FileName == ".." ||
		strings.ContainsAny(c.FileName, `/\`) || filepath.Base(c.FileName) != c.FileName {
		return ErrInvalidFileName
	}
	return nil
}

// isHTTPURL reports whether raw is an absolute http or https URL.
func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
