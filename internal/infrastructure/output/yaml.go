package output

import (
	"io"

	"github.com/goccy/go-yaml"
)

// YAMLFormatter formats a RunSummary as YAML.
type YAMLFormatter struct {
	writer io.Writer
}

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter(w io.Writer) *YAMLFormatter {
	return &YAMLFormatter{writer: w}
}

// Format writes summary as YAML.
func (f *YAMLFormatter) Format(summary *RunSummary) error {
	encoder := yaml.NewEncoder(f.writer, yaml.Indent(2))

	if err := encoder.Encode(summary); err != nil {
		return err
	}

	return encoder.Close()
}
