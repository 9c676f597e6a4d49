package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/taxocrawl/internal/model"
)

// SimpleWriter outputs human-readable text reports for terminal display.
type SimpleWriter struct {
	baseWriter

	// verbose adds the performed steps and pruned backups.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the run report in human-readable format.
func (w *SimpleWriter) Write(run *model.Run) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, run)
	w.writeOutput(&sb, run)
	w.writeArchive(&sb, run)
	w.writeFooter(&sb)

	return io.WriteString(w.output, sb.String())
}

// writeHeader writes the report header with run information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, run *model.Run) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                       TAXOCRAWL RUN REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Dimension:      %s\n", run.Dimension)
	fmt.Fprintf(sb, "Source:         %s\n", displayURL(run.SourceURL))
	fmt.Fprintf(sb, "Output:         %s\n", run.OutputPath())
	fmt.Fprintf(sb, "Started:        %s\n", run.StartedAt.Format(timeLayout))
	fmt.Fprintf(sb, "Elapsed:        %s\n", model.FormatElapsed(run.Elapsed()))

	if run.ErrorMessage != "" {
		fmt.Fprintf(sb, "Status:         %s - %s\n", statusLabel(run.Status), run.ErrorMessage)
	} else {
		fmt.Fprintf(sb, "Status:         %s\n", statusLabel(run.Status))
	}
	sb.WriteString("\n")
}

// writeOutput writes the dimension file section.
func (w *SimpleWriter) writeOutput(sb *strings.Builder, run *model.Run) {
	writeSection(sb, "DIMENSION FILE")

	fmt.Fprintf(sb, "  Root terms:     %d\n", run.TermCount)
	fmt.Fprintf(sb, "  Nodes:          %d\n", run.NodeCount)
	if run.Checksum != "" {
		fmt.Fprintf(sb, "  Bytes written:  %d\n", run.BytesWritten)
		fmt.Fprintf(sb, "  SHA3-256:       %s\n", run.Checksum)
	} else {
		sb.WriteString("  No file written\n")
	}
	if w.verbose && len(run.PerformedSteps) > 0 {
		fmt.Fprintf(sb, "  Steps:          %s\n", strings.Join(run.PerformedSteps, " -> "))
	}
	sb.WriteString("\n")
}

// writeArchive writes the backup section.
func (w *SimpleWriter) writeArchive(sb *strings.Builder, run *model.Run) {
	writeSection(sb, "BACKUPS")

	fmt.Fprintf(sb, "  Created:        %s\n", orNone(run.BackupCreated))
	fmt.Fprintf(sb, "  Pruned:         %d\n", len(run.BackupsPruned))
	if w.verbose {
		for _, name := range run.BackupsPruned {
			fmt.Fprintf(sb, "    [-] %s\n", name)
		}
	}
	if run.RestoredFrom != "" {
		fmt.Fprintf(sb, "  Restored from:  %s\n", run.RestoredFrom)
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}

// WriteHistory outputs the runs as an aligned table.
func (w *SimpleWriter) WriteHistory(runs []*model.Run) (int, error) {
	var sb strings.Builder

	if len(runs) == 0 {
		sb.WriteString("No runs recorded.\n")
		return io.WriteString(w.output, sb.String())
	}

	fmt.Fprintf(&sb, "%-6s %-23s %-20s %-13s %7s  %s\n", "ID", "STARTED", "DIMENSION", "STATUS", "NODES", "ELAPSED")
	for _, run := range runs {
		fmt.Fprintf(&sb, "%-6d %-23s %-20s %-13s %7d  %s\n",
			run.ID,
			run.StartedAt.Format(timeLayout),
			truncateString(run.Dimension, 20),
			statusLabel(run.Status),
			run.NodeCount,
			model.FormatElapsed(run.Elapsed()),
		)
		if w.verbose && run.ErrorMessage != "" {
			fmt.Fprintf(&sb, "       error: %s\n", run.ErrorMessage)
		}
	}
	return io.WriteString(w.output, sb.String())
}

func writeSection(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}
