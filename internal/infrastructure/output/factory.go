package output

import (
	"fmt"
	"io"
)

// Formatter renders a finished run's RunSummary. SARIF is deliberately not
// a Formatter: it renders a *graph.Rejection, a different shape produced
// only when the analyser rejects a blueprint, not when a run completes.
type Formatter interface {
	Format(summary *RunSummary) error
}

// FormatterOptions configures formatters that support it.
type FormatterOptions struct {
	Indent bool
}

// FormatterFactory builds Formatters by name.
type FormatterFactory struct{}

// NewFormatterFactory creates a new formatter factory.
func NewFormatterFactory() *FormatterFactory {
	return &FormatterFactory{}
}

// Create returns a formatter for the given format name.
func (f *FormatterFactory) Create(format string, writer io.Writer, options FormatterOptions) (Formatter, error) {
	switch format {
	case "table":
		return NewTableFormatter(writer), nil
	case "json":
		return NewJSONFormatter(writer, options.Indent), nil
	case "yaml":
		return NewYAMLFormatter(writer), nil
	case "junit":
		return NewJUnitFormatter(writer), nil
	default:
		return nil, fmt.Errorf("unknown format: %s (supported: %v)", format, f.SupportedFormats())
	}
}

// SupportedFormats returns the list of run-summary format names. "sarif" is
// handled separately via NewSARIFFormatter, since it formats a rejection,
// not a summary.
func (f *FormatterFactory) SupportedFormats() []string {
	return []string{"table", "json", "yaml", "junit"}
}
