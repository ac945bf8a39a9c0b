package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pypes-dev/pypes/internal/domain/values"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorGray   = "\033[90m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

// TableFormatter formats a RunSummary as a human-readable, colorized
// table.
type TableFormatter struct {
	writer      io.Writer
	EnableColor bool
}

// NewTableFormatter creates a new table formatter. Color is enabled by
// default; the caller can disable it for non-TTY destinations.
func NewTableFormatter(w io.Writer) *TableFormatter {
	return &TableFormatter{writer: w, EnableColor: true}
}

func (f *TableFormatter) colorize(text, code string) string {
	if !f.EnableColor {
		return text
	}
	return code + text + colorReset
}

// Format writes summary as a table.
//
//nolint:errcheck // best-effort terminal output
func (f *TableFormatter) Format(summary *RunSummary) error {
	fmt.Fprintln(f.writer, f.colorize(strings.Repeat("─", 72), colorGray))
	fmt.Fprintf(f.writer, "Run: %s\n", f.colorize(summary.RunID, colorBold))
	if summary.PolicyChecksSkipped {
		fmt.Fprintln(f.writer, f.colorize("  --allow-unsafe: Lethal Trifecta / Deadly Duo checks bypassed", colorYellow))
	}
	fmt.Fprintln(f.writer)

	if len(summary.Steps) == 0 {
		fmt.Fprintln(f.writer, "No steps executed.")
		return nil
	}

	fmt.Fprintln(f.writer, f.colorize("Steps:", colorBold))
	fmt.Fprintln(f.writer, f.colorize(strings.Repeat("─", 72), colorGray))
	for _, step := range summary.Steps {
		f.formatStep(step)
	}
	fmt.Fprintln(f.writer, f.colorize(strings.Repeat("─", 72), colorGray))
	fmt.Fprintln(f.writer)

	f.formatSummaryLine(summary)
	return nil
}

//nolint:errcheck // best-effort terminal output
func (f *TableFormatter) formatStep(step StepRecord) {
	symbol, color := f.statusInfo(step.Status)
	coloredSymbol := f.colorize(symbol, color)
	coloredID := f.colorize(step.ID, color)

	fmt.Fprintf(f.writer, "%s %s: %s.%s\n", coloredSymbol, coloredID, f.colorize(step.Component, colorCyan), step.Function)
	fmt.Fprintf(f.writer, "  Status:   %s\n", f.colorize(strings.ToUpper(string(step.Status)), color))
	fmt.Fprintf(f.writer, "  Duration: %s\n", step.Duration.Round(time.Millisecond))

	if step.Error != nil {
		fmt.Fprintf(f.writer, "  %s: [%s] %s\n", f.colorize("Error", colorRed), step.Error.Code, step.Error.Message)
	} else if step.Status == values.StepCompleted {
		fmt.Fprintf(f.writer, "  Output: %s\n", f.formatValue(step.Output))
	}

	fmt.Fprintln(f.writer)
}

func (f *TableFormatter) formatValue(v any) string {
	return fmt.Sprintf("%v", v)
}

//nolint:errcheck // best-effort terminal output
func (f *TableFormatter) formatSummaryLine(summary *RunSummary) {
	completed, failed, skipped, aborted := summary.counts()
	fmt.Fprintln(f.writer, f.colorize("Summary:", colorBold))
	fmt.Fprintln(f.writer, f.colorize(strings.Repeat("─", 72), colorGray))
	fmt.Fprintf(f.writer, "Overall status: %s\n", f.colorize(strings.ToUpper(string(summary.Status)), f.statusColor(summary.Status)))
	fmt.Fprintf(f.writer, "  %s Completed: %d\n", f.colorize("✓", colorGreen), completed)
	fmt.Fprintf(f.writer, "  %s Failed:    %d\n", f.colorize("✗", colorRed), failed)
	fmt.Fprintf(f.writer, "  %s Skipped:   %d\n", f.colorize("⊘", colorGray), skipped)
	fmt.Fprintf(f.writer, "  %s Aborted:   %d\n", f.colorize("⚠", colorYellow), aborted)
	fmt.Fprintln(f.writer, f.colorize(strings.Repeat("─", 72), colorGray))
}

func (f *TableFormatter) statusInfo(status values.StepStatus) (string, string) {
	switch status {
	case values.StepCompleted:
		return "✓", colorGreen
	case values.StepFailed:
		return "✗", colorRed
	case values.StepAborted:
		return "⚠", colorYellow
	case values.StepSkipped:
		return "⊘", colorGray
	default:
		return "?", colorReset
	}
}

func (f *TableFormatter) statusColor(status values.StepStatus) string {
	_, color := f.statusInfo(status)
	return color
}
