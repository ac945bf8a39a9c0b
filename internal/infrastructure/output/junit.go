package output

import (
	"encoding/xml"
	"io"

	"github.com/pypes-dev/pypes/internal/domain/values"
)

// JUnitFormatter formats a RunSummary as JUnit XML, one test case per
// workflow step.
type JUnitFormatter struct {
	writer io.Writer
}

// NewJUnitFormatter creates a new JUnit formatter.
func NewJUnitFormatter(w io.Writer) *JUnitFormatter {
	return &JUnitFormatter{writer: w}
}

type JUnitTestSuites struct {
	XMLName    xml.Name         `xml:"testsuites"`
	Name       string           `xml:"name,attr"`
	Tests      int              `xml:"tests,attr"`
	Failures   int              `xml:"failures,attr"`
	Errors     int              `xml:"errors,attr"`
	TestSuites []JUnitTestSuite `xml:"testsuite"`
}

type JUnitTestSuite struct {
	XMLName   xml.Name        `xml:"testsuite"`
	Name      string          `xml:"name,attr"`
	Tests     int             `xml:"tests,attr"`
	Failures  int             `xml:"failures,attr"`
	Errors    int             `xml:"errors,attr"`
	Skipped   int             `xml:"skipped,attr"`
	Time      float64         `xml:"time,attr"`
	TestCases []JUnitTestCase `xml:"testcase"`
}

type JUnitTestCase struct {
	XMLName   xml.Name      `xml:"testcase"`
	Name      string        `xml:"name,attr"`
	ClassName string        `xml:"classname,attr"`
	Time      float64       `xml:"time,attr"`
	Failure   *JUnitFailure `xml:"failure,omitempty"`
	Error     *JUnitError   `xml:"error,omitempty"`
	Skipped   *JUnitSkipped `xml:"skipped,omitempty"`
}

type JUnitFailure struct {
	Message string `xml:"message,attr"`
	Content string `xml:",chardata"`
}

type JUnitError struct {
	Message string `xml:"message,attr"`
	Content string `xml:",chardata"`
}

type JUnitSkipped struct {
	Message string `xml:"message,attr,omitempty"`
}

// Format writes summary as JUnit XML.
func (f *JUnitFormatter) Format(summary *RunSummary) error {
	_, failed, skipped, aborted := summary.counts()

	suite := JUnitTestSuite{
		Name:     summary.RunID,
		Tests:    len(summary.Steps),
		Failures: failed,
		Errors:   aborted,
		Skipped:  skipped,
	}

	var totalDuration float64
	for _, step := range summary.Steps {
		totalDuration += step.Duration.Seconds()

		c := JUnitTestCase{
			Name:      step.ID,
			ClassName: step.Component + "." + step.Function,
			Time:      step.Duration.Seconds(),
		}

		switch step.Status {
		case values.StepFailed:
			c.Failure = &JUnitFailure{
				Message: errorMessage(step),
				Content: errorContent(step),
			}
		case values.StepAborted:
			c.Error = &JUnitError{
				Message: errorMessage(step),
				Content: errorContent(step),
			}
		case values.StepSkipped:
			c.Skipped = &JUnitSkipped{Message: "dependency did not complete"}
		}

		suite.TestCases = append(suite.TestCases, c)
	}
	suite.Time = totalDuration

	suites := JUnitTestSuites{
		Name:       "Pypes Run",
		Tests:      len(summary.Steps),
		Failures:   failed,
		Errors:     aborted,
		TestSuites: []JUnitTestSuite{suite},
	}

	if _, err := f.writer.Write([]byte(xml.Header)); err != nil {
		return err
	}

	encoder := xml.NewEncoder(f.writer)
	encoder.Indent("", "  ")
	if err := encoder.Encode(suites); err != nil {
		return err
	}

	_, err := f.writer.Write([]byte("\n"))
	return err
}

func errorMessage(step StepRecord) string {
	if step.Error == nil {
		return "step did not complete"
	}
	return step.Error.Message
}

func errorContent(step StepRecord) string {
	if step.Error == nil {
		return ""
	}
	detail := step.Error
	content := detail.Message
	for detail.Wrapped != nil {
		detail = detail.Wrapped
		content += "\ncaused by: " + detail.Message
	}
	return content
}
