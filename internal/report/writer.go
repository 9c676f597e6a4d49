package report

import (
	"io"
	"net/url"

	"github.com/nao1215/taxocrawl/internal/model"
)

// Writer defines the interface for report output.
type Writer interface {
	// Write outputs the report of a single run.
	// Returns the number of bytes written and any error encountered.
	Write(run *model.Run) (int, error)

	// WriteHistory outputs a list of recorded runs, newest first.
	WriteHistory(runs []*model.Run) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the run to all configured Writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(run *model.Run) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(run)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteHistory outputs the history to all configured Writers.
func (m *MultiWriter) WriteHistory(runs []*model.Run) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteHistory(runs)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// timeLayout is used for every timestamp in text and Markdown reports.
const timeLayout = "2006-01-02 15:04:05 MST"

// displayURL hides the password of a URL with user information.
func displayURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Redacted()
}

// statusLabel returns a short upper-case label for status.
func statusLabel(status model.RunStatus) string {
	switch status {
	case model.RunStatusCompleted:
		return "COMPLETED"
	case model.RunStatusNoData:
		return "NO DATA"
	case model.RunStatusFetchFailed:
		return "FETCH FAILED"
	case model.RunStatusRolledBack:
		return "ROLLED BACK"
	case model.RunStatusFailed:
		return "FAILED"
	case model.RunStatusPending:
		return "PENDING"
	default:
		return string(status)
	}
}

// orNone returns s, or "none" when s is empty.
func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

// truncateString truncates a string to maxLen runes with ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
