package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and can be matched with
// errors.Is().
var (
	// ErrNoURL is returned when no taxonomy service URL is specified.
	ErrNoURL = errors.New("no source URL specified: use --url or source.url in the config file")

	// ErrInvalidURL is returned when the source URL is not an absolute http(s) URL.
	ErrInvalidURL = errors.New("invalid source URL: must be an absolute http or https URL")

	// ErrNoOutputDir is returned when no output directory is specified.
	ErrNoOutputDir = errors.New("no output directory specified: use --output-dir")

	// ErrOutputDirNotFound is returned when the output directory does not exist.
	ErrOutputDirNotFound = errors.New("output directory does not exist")

	// ErrOutputNotDirectory is returned when the output path is not a directory.
	ErrOutputNotDirectory = errors.New("output path is not a directory")

	// ErrNoFileName is returned when no output file name is specified.
	ErrNoFileName = errors.New("no output file name specified: use --file")

	// ErrInvalidFileName is returned when the output file name contains a
	// path separator or names a directory entry such as "..".
	ErrInvalidFileName = errors.New("invalid output file name: must be a plain file name")

	// ErrNoDimension is returned when no dimension name is specified.
	ErrNoDimension = errors.New("no dimension specified: use --dimension")

	// ErrInvalidTimeout is returned when the timeout is negative.
	// Zero keeps the HTTP client default.
	ErrInvalidTimeout = errors.New("invalid timeout: must be non-negative")

	// ErrInvalidMaxBackups is returned when the backup retention is below one.
	// The backup of the current run must survive its own prune.
	ErrInvalidMaxBackups = errors.New("invalid max backups: must be at least 1")

	// ErrInvalidReportFormat is returned for an unknown --report value.
	ErrInvalidReportFormat = errors.New("invalid report format: must be text, markdown or json")

	// ErrInvalidProxyAddress is returned when the proxy is not a host:port pair.
	ErrInvalidProxyAddress = errors.New("invalid proxy address: must be host:port")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")
)
