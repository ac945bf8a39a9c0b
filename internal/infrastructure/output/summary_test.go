package output

import (
	"testing"
	"time"

	"github.com/pypes-dev/pypes/internal/application/services"
	"github.com/pypes-dev/pypes/internal/domain/blueprint"
	"github.com/pypes-dev/pypes/internal/domain/execution"
	"github.com/pypes-dev/pypes/internal/domain/values"
	"github.com/pypes-dev/pypes/wireformat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStep(t *testing.T, id, component, iface, fn string) blueprint.WorkflowStep {
	t.Helper()
	name, err := blueprint.ParseInterfaceName(iface)
	require.NoError(t, err)
	return blueprint.WorkflowStep{
		ID:        values.MustNewStepID(id),
		Component: component,
		Function:  blueprint.QualifiedFunction{Interface: name, Function: fn},
	}
}

func TestNewRunSummary(t *testing.T) {
	step := newTestStep(t, "fetch", "http-client", "pypes:http/client", "get")

	bp := &blueprint.Blueprint{
		Steps: []blueprint.WorkflowStep{step},
	}

	runID := values.NewRunID()
	env := execution.NewValueEnvironment(runID)
	require.NoError(t, env.Record("fetch", execution.StepOutcome{
		Status:   values.StepCompleted,
		Value:    wireformat.Value{Kind: wireformat.KindString, Str: "ok"},
		Duration: 50 * time.Millisecond,
	}))

	result := &services.RunResult{RunID: runID, Environment: env}
	summary := NewRunSummary(bp, result, nil)

	assert.Equal(t, runID.String(), summary.RunID)
	assert.Equal(t, values.StepCompleted, summary.Status)
	require.Len(t, summary.Steps, 1)
	assert.Equal(t, "fetch", summary.Steps[0].ID)
	assert.Equal(t, "http-client", summary.Steps[0].Component)
	assert.Equal(t, "pypes:http/client.get", summary.Steps[0].Function)
}

func TestRunSummaryCounts(t *testing.T) {
	summary := &RunSummary{Steps: []StepRecord{
		{Status: values.StepCompleted},
		{Status: values.StepFailed},
		{Status: values.StepSkipped},
		{Status: values.StepAborted},
		{Status: values.StepCompleted},
	}}

	completed, failed, skipped, aborted := summary.counts()
	assert.Equal(t, 2, completed)
	assert.Equal(t, 1, failed)
	assert.Equal(t, 1, skipped)
	assert.Equal(t, 1, aborted)
}

func TestNewRunSummaryEmptyEnvironment(t *testing.T) {
	bp := &blueprint.Blueprint{}
	result := &services.RunResult{RunID: values.NewRunID(), Environment: execution.NewValueEnvironment(values.NewRunID())}
	summary := NewRunSummary(bp, result, nil)
	assert.Empty(t, summary.Steps)
	assert.Equal(t, values.StepCompleted, summary.Status)
}
