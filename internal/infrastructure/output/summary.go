// Package output formats a finished workflow run or a rejected analysis
// for human and machine consumption: a colorized table for terminals,
// JSON/YAML for scripting, JUnit XML for CI test reporting, and SARIF
// 2.1.0 for the analyser's policy rejections.
package output

import (
	"time"

	"github.com/pypes-dev/pypes/internal/application/services"
	"github.com/pypes-dev/pypes/internal/domain/blueprint"
	"github.com/pypes-dev/pypes/internal/domain/values"
	"github.com/pypes-dev/pypes/internal/infrastructure/redaction"
	"github.com/pypes-dev/pypes/wireformat"
)

// StepRecord is one workflow step's terminal state, flattened for
// presentation: the blueprint fields that name what ran, plus the
// ValueEnvironment outcome it produced.
type StepRecord struct {
	ID        string
	Component string
	Function  string
	Status    values.StepStatus
	Duration  time.Duration
	Output    wireformat.Value
	Error     *wireformat.ErrorDetail
}

// RunSummary is the presentation-layer projection of a finished run: every
// step in declared order, the run's overall status, and whether
// --allow-unsafe bypassed the analyser's policy checks.
type RunSummary struct {
	RunID               string
	Status              values.StepStatus
	PolicyChecksSkipped bool
	Steps               []StepRecord
}

// NewRunSummary projects a Runner.RunResult against bp's declared steps
// into a RunSummary. Steps the executor never reached (aborted before
// their turn) are omitted, matching the ValueEnvironment's append-only
// contents. redactor, if non-nil, scrubs every step's output value before
// it is rendered — a step wired to a SensitiveDataSource edge can return
// content the operator never wrote a pattern for, so the same scrubbing
// applied to logs and stdout is applied here too.
func NewRunSummary(bp *blueprint.Blueprint, result *services.RunResult, redactor *redaction.Redactor) *RunSummary {
	summary := &RunSummary{
		PolicyChecksSkipped: result.PolicyChecksSkipped,
	}
	if !result.RunID.IsZero() {
		summary.RunID = result.RunID.String()
	}

	env := result.Environment
	if env == nil {
		return summary
	}
	summary.Status = env.RunStatus()

	byID := make(map[string]blueprint.WorkflowStep, len(bp.Steps))
	for _, step := range bp.Steps {
		byID[step.ID.String()] = step
	}

	for _, id := range env.Order() {
		outcome, ok := env.Lookup(id)
		if !ok {
			continue
		}
		output := outcome.Value
		if redactor != nil {
			output = redactor.RedactValue(output)
		}
		record := StepRecord{
			ID:       id,
			Status:   outcome.Status,
			Duration: outcome.Duration,
			Output:   output,
			Error:    outcome.Error,
		}
		if step, found := byID[id]; found {
			record.Component = step.Component
			record.Function = step.Function.Interface.String() + "." + step.Function.Function
		}
		summary.Steps = append(summary.Steps, record)
	}

	return summary
}

// counts tallies step statuses for the table/JUnit summary line.
func (s *RunSummary) counts() (completed, failed, skipped, aborted int) {
	for _, step := range s.Steps {
		switch step.Status {
		case values.StepCompleted:
			completed++
		case values.StepFailed:
			failed++
		case values.StepSkipped:
			skipped++
		case values.StepAborted:
			aborted++
		}
	}
	return
}
