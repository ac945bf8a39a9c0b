// Package output formats a finished workflow run or a rejected analysis
// for human and machine consumption: a colorized table for terminals,
// JSON/YAML for scripting, JUnit XML for CI test reporting, and SARIF
// 2.1.0 for the analyser's policy rejections.
package output

import (
	"fmt"
	"io"

	"github.com/owenrumney/go-sarif/v3/pkg/report/v210/sarif"
	"github.com/pypes-dev/pypes/internal/domain/graph"
)

// SARIFFormatter formats an analyser Rejection as SARIF 2.1.0 JSON, mapping
// each RejectionReason to a SARIF rule so the same taxonomy shows up
// consistently in a code-scanning UI across runs.
type SARIFFormatter struct {
	writer      io.Writer
	toolVersion string
}

// NewSARIFFormatter creates a new SARIF formatter. toolVersion is reported
// as the driver version.
func NewSARIFFormatter(writer io.Writer, toolVersion string) *SARIFFormatter {
	return &SARIFFormatter{writer: writer, toolVersion: toolVersion}
}

// Format writes rejection as a single-result SARIF 2.1.0 report.
func (f *SARIFFormatter) Format(rejection *graph.Rejection) error {
	report := sarif.NewReport()

	run := sarif.NewRunWithInformationURI("pypes", "https://github.com/pypes-dev/pypes")
	run.Tool.Driver.Version = &f.toolVersion
	run.Tool.Driver.Organization = ptrString("pypes-dev")

	mapper := newSARIFMapper(rejection)
	mapper.mapToRun(run)

	report.AddRun(run)

	if err := report.Write(f.writer); err != nil {
		return fmt.Errorf("write SARIF output: %w", err)
	}

	_, err := f.writer.Write([]byte("\n"))
	return err
}

func ptrString(s string) *string {
	return &s
}
