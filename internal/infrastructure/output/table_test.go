package output

import (
	"bytes"
	"testing"
	"time"

	"github.com/pypes-dev/pypes/internal/domain/values"
	"github.com/pypes-dev/pypes/wireformat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableFormatter_Format(t *testing.T) {
	summary := &RunSummary{
		RunID:  "run-1",
		Status: values.StepFailed,
		Steps: []StepRecord{
			{ID: "fetch", Component: "http-client", Function: "wasi:http/client.get", Status: values.StepCompleted, Duration: 10 * time.Millisecond, Output: wireformat.Value{Kind: wireformat.KindString, Str: "ok"}},
			{ID: "send", Component: "mail", Function: "app:mail/sender.send", Status: values.StepFailed, Duration: 5 * time.Millisecond, Error: &wireformat.ErrorDetail{Message: "connection refused", Code: "ECONNREFUSED"}},
		},
	}

	var buf bytes.Buffer
	f := NewTableFormatter(&buf)
	f.EnableColor = false

	require.NoError(t, f.Format(summary))

	out := buf.String()
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "fetch")
	assert.Contains(t, out, "send")
	assert.Contains(t, out, "connection refused")
	assert.Contains(t, out, "Completed: 1")
	assert.Contains(t, out, "Failed:    1")
}

func TestTableFormatter_PolicyChecksSkipped(t *testing.T) {
	summary := &RunSummary{RunID: "run-2", PolicyChecksSkipped: true}

	var buf bytes.Buffer
	f := NewTableFormatter(&buf)
	f.EnableColor = false
	require.NoError(t, f.Format(summary))

	assert.Contains(t, buf.String(), "--allow-unsafe")
}

func TestTableFormatter_NoSteps(t *testing.T) {
	var buf bytes.Buffer
	f := NewTableFormatter(&buf)
	f.EnableColor = false
	require.NoError(t, f.Format(&RunSummary{RunID: "run-3"}))
	assert.Contains(t, buf.String(), "No steps executed")
}
