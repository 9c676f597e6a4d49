package model

import (
	"fmt"
	"path/filepath"
	"time"
)

// RunStatus describes how a crawl run ended.
type RunStatus string

const (
	// RunStatusPending is the status of a run that has not finished yet.
	RunStatusPending RunStatus = "pending"

	// RunStatusCompleted means a new dimension file was written.
	RunStatusCompleted RunStatus = "completed"

	// RunStatusNoData means the taxonomy service returned no terms.
	// No file was touched.
	RunStatusNoData RunStatus = "no_data"

	// RunStatusFetchFailed means the taxonomy could not be retrieved.
	// No file was touched.
	RunStatusFetchFailed RunStatus = "fetch_failed"

	// RunStatusRolledBack means the write failed and the most recent
	// backup was restored under the dimension file name.
	RunStatusRolledBack RunStatus = "rolled_back"

	// RunStatusFailed means the run aborted on an unrecoverable error.
	RunStatusFailed RunStatus = "failed"
)

// String returns the status as stored in the history database.
func (s RunStatus) String() string {
	return string(s)
}

// Succeeded reports whether the run produced a new dimension file.
func (s RunStatus) Succeeded() bool {
	return s == RunStatusCompleted
}

// Run carries the inputs, intermediate data and outcome of one crawl.
// Pipeline steps read and update it in order.
type Run struct {
	// ID is the history database id. Zero until the run is saved.
	ID int64 `json:"id,omitempty"`

	// Dimension is the dimension name; it is the id of the root node.
	Dimension string `json:"dimension"`

	// SourceURL is the taxonomy endpoint.
	SourceURL string `json:"source_url"`

	// OutputDir is the directory holding the dimension file and its backups.
	OutputDir string `json:"output_dir"`

	// FileName is the dimension file name inside OutputDir.
	FileName string `json:"file_name"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitzero"`

	// Terms is the fetched forest. Not persisted.
	Terms []*Term `json:"-"`

	// Nodes is the flattened output. Not persisted.
	Nodes []DimensionNode `json:"-"`

	// TermCount is the number of top-level terms fetched.
	TermCount int `json:"term_count"`

	// NodeCount is the number of dimension nodes emitted.
	NodeCount int `json:"node_count"`

	// BackupCreated is the name of the backup made from the previous file.
	BackupCreated string `json:"backup_created,omitempty"`

	// BackupsPruned lists backups removed by retention.
	BackupsPruned []string `json:"backups_pruned,omitempty"`

	// RestoredFrom is the backup name restored after a failed write.
	RestoredFrom string `json:"restored_from,omitempty"`

	// Checksum is the SHA3-256 digest of the written file, hex encoded.
	Checksum string `json:"checksum,omitempty"`

	// BytesWritten is the size of the written file.
	BytesWritten int64 `json:"bytes_written,omitempty"`

	Status RunStatus `json:"status"`

	// Error is the error that ended the run, if any.
	Error        error  `json:"-"`
	ErrorMessage string `json:"error,omitempty"`

	// PerformedSteps lists the pipeline steps that ran, in order.
	PerformedSteps []string `json:"performed_steps,omitempty"`
}

// NewRun creates a pending run for the given inputs.
func NewRun(dimension, sourceURL, outputDir, fileName string) *Run {
	return &Run{
		Dimension: dimension,
		SourceURL: sourceURL,
		OutputDir: outputDir,
		FileName:  fileName,
		StartedAt: time.Now(),
		Status:    RunStatusPending,
	}
}

// OutputPath returns the full path of the dimension file.
func (r *Run) OutputPath() string {
	return filepath.Join(r.OutputDir, r.FileName)
}

// SetError records err as the reason the run ended.
func (r *Run) SetError(err error) {
	r.Error = err
	if err != nil {
		r.ErrorMessage = err.Error()
	}
}

// Finish marks the run as ended with the given status.
// A run keeps the first terminal status it receives.
func (r *Run) Finish(status RunStatus) {
	if r.Status == RunStatusPending {
		r.Status = status
	}
	if r.FinishedAt.IsZero() {
		r.FinishedAt = time.Now()
	}
}

// Elapsed returns how long the run took, or has taken so far.
func (r *Run) Elapsed() time.Duration {
	if r.FinishedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// FormatElapsed renders d in whole minutes, falling back to whole seconds
// and then milliseconds when the larger unit would be zero.
func FormatElapsed(d time.Duration) string {
	if m := int64(d / time.Minute); m > 0 {
		return fmt.Sprintf("%d minute(s)", m)
	}
	if s := int64(d / time.Second); s > 0 {
		return fmt.Sprintf("%d second(s)", s)
	}
	return fmt.Sprintf("%d millisecond(s)", d.Milliseconds())
}
