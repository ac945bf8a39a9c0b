// Package execution holds the run-scoped state of one workflow execution:
// the append-only value environment that accumulates step outputs.
package execution

import (
	"fmt"
	"sync"
	"time"

	"github.com/pypes-dev/pypes/internal/domain/values"
	"github.com/pypes-dev/pypes/wireformat"
)

// StepOutcome records one step's terminal state: its status, the value it
// produced (if any), an error detail (if any), and how long it took.
type StepOutcome struct {
	Status   values.StepStatus
	Value    wireformat.Value
	Error    *wireformat.ErrorDetail
	Duration time.Duration
}

// ValueEnvironment is the run-scoped, append-only mapping from step id to
// that step's outcome. Populated monotonically during execution; once a
// step id is written it is never overwritten. Not shared across runs.
type ValueEnvironment struct {
	runID values.RunID
	mu    sync.RWMutex
	order []string
	byID  map[string]StepOutcome
}

// NewValueEnvironment creates an empty environment scoped to runID.
func NewValueEnvironment(runID values.RunID) *ValueEnvironment {
	return &ValueEnvironment{
		runID: runID,
		byID:  make(map[string]StepOutcome),
	}
}

// RunID returns the owning run's identity.
func (e *ValueEnvironment) RunID() values.RunID {
	return e.runID
}

// Record appends a step's outcome. Returns an error if the step id has
// already been recorded — the environment is append-only.
func (e *ValueEnvironment) Record(stepID string, outcome StepOutcome) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.byID[stepID]; exists {
		return fmt.Errorf("value environment: step %q already recorded", stepID)
	}

	e.byID[stepID] = outcome
	e.order = append(e.order, stepID)
	return nil
}

// Lookup returns the recorded outcome for stepID, if any.
func (e *ValueEnvironment) Lookup(stepID string) (StepOutcome, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	outcome, ok := e.byID[stepID]
	return outcome, ok
}

// Order returns step ids in the order they were recorded.
func (e *ValueEnvironment) Order() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]string, len(e.order))
	copy(out, e.order)
	return out
}

// RunStatus aggregates the run's overall status from its recorded step
// outcomes, using StepStatus.Precedence so an aborted or failed step always
// dominates a completed one.
func (e *ValueEnvironment) RunStatus() values.StepStatus {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if len(e.byID) == 0 {
		return values.StepCompleted
	}

	worst := values.StepCompleted
	for _, outcome := range e.byID {
		if outcome.Status.Precedence() > worst.Precedence() {
			worst = outcome.Status
		}
	}
	return worst
}
