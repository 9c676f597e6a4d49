package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".taxocrawl"

// XDGConfigFileName is the config file name inside the XDG config directory.
const XDGConfigFileName = "config.yaml"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// envReference matches ${NAME} references in config values.
var envReference = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// SourceSection describes where the taxonomy comes from.
type SourceSection struct {
	URL       string `yaml:"url,omitempty"`
	User      string `yaml:"user,omitempty"`
	Password  string `yaml:"password,omitempty"`
	Dimension string `yaml:"dimension,omitempty"`
}

// OutputSection describes where the dimension file goes.
type OutputSection struct {
	Dir        string `yaml:"dir,omitempty"`
	File       string `yaml:"file,omitempty"`
	MaxBackups *int   `yaml:"maxBackups,omitempty"`
	Report     string `yaml:"report,omitempty"`
	ReportFile string `yaml:"reportFile,omitempty"`
}

// FetchSection tunes the HTTP request.
type FetchSection struct {
	Timeout     time.Duration `yaml:"timeout,omitempty"`
	Proxy       string        `yaml:"proxy,omitempty"`
	UserAgent   string        `yaml:"userAgent,omitempty"`
	MaxBodySize int64         `yaml:"maxBodySize,omitempty"`
}

// HistorySection controls the run history database.
type HistorySection struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Dir     string `yaml:"dir,omitempty"`
}

// File represents the structure of the .taxocrawl configuration file.
type File struct {
	Source  SourceSection  `yaml:"source,omitempty"`
	Output  OutputSection  `yaml:"output,omitempty"`
	Fetch   FetchSection   `yaml:"fetch,omitempty"`
	History HistorySection `yaml:"history,omitempty"`
}

// LoadConfigFile loads a YAML configuration file and expands ${NAME}
// references in its string values from the environment.
// If the file does not exist, it returns ErrConfigNotFound.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cf.expandEnv()
	return &cf, nil
}

// expandEnv replaces ${NAME} references. Unset variables expand to "".
func (cf *File) expandEnv() {
	for _, s := range []*string{
		&cf.Source.URL,
		&cf.Source.User,
		&cf.Source.Password,
		&cf.Source.Dimension,
		&cf.Output.Dir,
		&cf.Output.File,
		&cf.Output.Report,
		&cf.Output.ReportFile,
		&cf.Fetch.Proxy,
		&cf.Fetch.UserAgent,
		&cf.History.Dir,
	} {
		*s = expandEnv(*s)
	}
}

func expandEnv(s string) string {
	return envReference.ReplaceAllStringFunc(s, func(ref string) string {
		return os.Getenv(envReference.FindStringSubmatch(ref)[1])
	})
}

// ApplyTo copies every value set in the file onto cfg.
func (cf *File) ApplyTo(cfg *Config) {
	setString(&cfg.URL, cf.Source.URL)
	setString(&cfg.User, cf.Source.User)
	setString(&cfg.Password, cf.Source.Password)
	setString(&cfg.Dimension, cf.Source.Dimension)

	setString(&cfg.OutputDir, cf.Output.Dir)
	setString(&cfg.FileName, cf.Output.File)
	if cf.Output.MaxBackups != nil {
		cfg.MaxBackups = *cf.Output.MaxBackups
	}
	setString(&cfg.ReportFormat, cf.Output.Report)
	setString(&cfg.ReportFile, cf.Output.ReportFile)

	if cf.Fetch.Timeout != 0 {
		cfg.Timeout = cf.Fetch.Timeout
	}
	setString(&cfg.ProxyAddress, cf.Fetch.Proxy)
	setString(&cfg.UserAgent, cf.Fetch.UserAgent)
	if cf.Fetch.MaxBodySize != 0 {
		cfg.MaxBodySize = cf.Fetch.MaxBodySize
	}

	if cf.History.Enabled != nil {
		cfg.SaveHistory = *cf.History.Enabled
	}
	setString(&cfg.DBDir, cf.History.Dir)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .taxocrawl in the current directory
// 3. Look for config.yaml in the XDG config directory
// 4. Look for .taxocrawl in the user's home directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	candidates := make([]string, 0, 3)
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), XDGConfigFileName))
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}

	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}
