package output

import (
	"encoding/json"
	"io"
)

// JSONFormatter formats a RunSummary as JSON.
type JSONFormatter struct {
	writer io.Writer
	indent bool
}

// NewJSONFormatter creates a JSON formatter. When indent is true the output
// is pretty-printed with two-space indentation.
func NewJSONFormatter(w io.Writer, indent bool) *JSONFormatter {
	return &JSONFormatter{writer: w, indent: indent}
}

// Format writes summary as JSON.
func (f *JSONFormatter) Format(summary *RunSummary) error {
	enc := json.NewEncoder(f.writer)
	if f.indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(summary)
}
