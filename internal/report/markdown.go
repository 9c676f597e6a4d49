package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/taxocrawl/internal/model"
)

// MarkdownWriter outputs reports in GitHub Flavored Markdown.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the run report in Markdown format.
func (w *MarkdownWriter) Write(run *model.Run) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Taxocrawl Run Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Dimension", "`" + run.Dimension + "`"},
			{"Source", displayURL(run.SourceURL)},
			{"Output", "`" + run.OutputPath() + "`"},
			{"Started", run.StartedAt.Format(timeLayout)},
			{"Elapsed", model.FormatElapsed(run.Elapsed())},
			{"Status", statusText(run.Status)},
		},
	})
	md.PlainText("")

	w.writeAlert(md, run)

	md.H2("Dimension File")
	md.PlainText("")
	rows := [][]string{
		{"Root terms", strconv.Itoa(run.TermCount)},
		{"Nodes", strconv.Itoa(run.NodeCount)},
	}
	if run.Checksum != "" {
		rows = append(rows,
			[]string{"Bytes written", strconv.FormatInt(run.BytesWritten, 10)},
			[]string{"SHA3-256", "`" + run.Checksum + "`"},
		)
	}
	md.Table(markdown.TableSet{Header: []string{"Metric", "Value"}, Rows: rows})
	md.PlainText("")

	md.H2("Backups")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Action", "Backup"},
		Rows:   archiveRows(run),
	})
	md.PlainText("")

	if len(run.PerformedSteps) > 0 {
		md.Details("Performed steps", strings.Join(run.PerformedSteps, " → "))
		md.PlainText("")
	}

	w.writeFooter(md)
	return len(md.String()), md.Build()
}

// writeAlert writes an alert matching the run outcome.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, run *model.Run) {
	switch run.Status {
	case model.RunStatusCompleted:
		md.Tip("The dimension file was regenerated.")
	case model.RunStatusNoData:
		md.Note("The taxonomy service returned no terms. No file was changed.")
	case model.RunStatusFetchFailed:
		md.Warningf("The taxonomy could not be fetched: %s. No file was changed.", run.ErrorMessage)
	case model.RunStatusRolledBack:
		md.Warningf("Writing failed (%s). The previous file was restored from `%s`.", run.ErrorMessage, run.RestoredFrom)
	default:
		md.Cautionf("The run failed: %s", orNone(run.ErrorMessage))
	}
	md.PlainText("")
}

// archiveRows lists what happened to backups during run.
func archiveRows(run *model.Run) [][]string {
	rows := [][]string{{"Created", orNone(run.BackupCreated)}}
	for _, name := range run.BackupsPruned {
		rows = append(rows, []string{"Pruned", name})
	}
	if run.RestoredFrom != "" {
		rows = append(rows, []string{"Restored", run.RestoredFrom})
	}
	return rows
}

// WriteHistory outputs the runs as a Markdown table with a status chart.
func (w *MarkdownWriter) WriteHistory(runs []*model.Run) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Taxocrawl Run History")
	md.PlainText("")

	if len(runs) == 0 {
		md.PlainText("No runs recorded.")
		return len(md.String()), md.Build()
	}

	rows := make([][]string, len(runs))
	for i, run := range runs {
		rows[i] = []string{
			strconv.FormatInt(run.ID, 10),
			run.StartedAt.Format(timeLayout),
			run.Dimension,
			statusText(run.Status),
			strconv.Itoa(run.NodeCount),
			model.FormatElapsed(run.Elapsed()),
			truncateString(orNone(run.BackupCreated), 48),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"ID", "Started", "Dimension", "Status", "Nodes", "Elapsed", "Backup"},
		Rows:   rows,
	})
	md.PlainText("")

	w.writePieChart(md, runs)
	w.writeFooter(md)
	return len(md.String()), md.Build()
}

// writePieChart writes a mermaid pie chart of run outcomes.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, runs []*model.Run) {
	counts := make(map[model.RunStatus]uint64)
	for _, run := range runs {
		counts[run.Status]++
	}

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Run Outcomes"),
		piechart.WithShowData(true),
	)
	for _, status := range []model.RunStatus{
		model.RunStatusCompleted,
		model.RunStatusNoData,
		model.RunStatusFetchFailed,
		model.RunStatusRolledBack,
		model.RunStatusFailed,
	} {
		if n := counts[status]; n > 0 {
			chart.LabelAndIntValue(statusLabel(status), n)
		}
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [taxocrawl](https://github.com/nao1215/taxocrawl)*")
}

// statusText returns the status with an emoji marker.
func statusText(status model.RunStatus) string {
	switch status {
	case model.RunStatusCompleted:
		return "✅ " + statusLabel(status)
	case model.RunStatusNoData:
		return "⚪ " + statusLabel(status)
	case model.RunStatusRolledBack, model.RunStatusFetchFailed:
		return "⚠️ " + statusLabel(status)
	default:
		return "❌ " + statusLabel(status)
	}
}
