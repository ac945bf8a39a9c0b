package services

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/pypes-dev/pypes/internal/application/errors"
	"github.com/pypes-dev/pypes/internal/domain/blueprint"
	"github.com/pypes-dev/pypes/internal/domain/execution"
	"github.com/pypes-dev/pypes/internal/domain/values"
	"github.com/pypes-dev/pypes/wireformat"
)

// WorkflowExecutor drives a Blueprint's workflow DAG to completion: single
// threaded, cooperative, cancellable only between steps. It has no
// knowledge of the capability graph; the blueprint it receives has already
// been accepted by the analyser.
type WorkflowExecutor struct {
	proxy    *ValueProxy
	template *TemplateEngine
	linked   map[string]LinkedComponent
	steps    []blueprint.WorkflowStep
}

// NewWorkflowExecutor returns an executor bound to the linker's output.
func NewWorkflowExecutor(proxy *ValueProxy, template *TemplateEngine, linked map[string]LinkedComponent) *WorkflowExecutor {
	return &WorkflowExecutor{proxy: proxy, template: template, linked: linked}
}

// Run drives bp's steps in declared order into a fresh ValueEnvironment for
// runID. ctx cancellation is observed only at step boundaries, per spec §5.
func (x *WorkflowExecutor) Run(ctx context.Context, runID values.RunID, bp *blueprint.Blueprint) (*execution.ValueEnvironment, error) {
	env := execution.NewValueEnvironment(runID)
	x.steps = bp.Steps

	for _, step := range bp.Steps {
		if err := ctx.Err(); err != nil {
			return env, apperrors.NewCancelled(step.ID.String())
		}

		// A step already recorded was run early as another step's on_error
		// fallback; running it again in declared order would be a second,
		// unrelated invocation of the same fallback component.
		if _, already := env.Lookup(step.ID.String()); already {
			continue
		}

		if err := x.runStep(ctx, step, env); err != nil {
			return env, err
		}
	}

	return env, nil
}

func (x *WorkflowExecutor) runStep(ctx context.Context, step blueprint.WorkflowStep, env *execution.ValueEnvironment) error {
	stepID := step.ID.String()
	start := time.Now()

	if step.Condition != "" {
		skip, err := x.evaluateCondition(stepID, step.Condition, env)
		if err != nil {
			return x.fail(ctx, stepID, step, env, start, err)
		}
		if skip {
			return env.Record(stepID, execution.StepOutcome{Status: values.StepSkipped, Duration: time.Since(start)})
		}
	}

	args, err := x.expandArgs(stepID, step, env)
	if err != nil {
		return x.fail(ctx, stepID, step, env, start, err)
	}

	linked, ok := x.linked[step.Component]
	if !ok {
		return x.fail(ctx, stepID, step, env, start, apperrors.NewStepInvocationFailed(step.Component, stepID, fmt.Errorf("component %q is not linked", step.Component)))
	}

	result, err := x.proxy.Invoke(ctx, step.Component, stepID, linked.World, step.Function, args, linked.Instance)
	if err != nil {
		return x.fail(ctx, stepID, step, env, start, err)
	}

	return env.Record(stepID, execution.StepOutcome{Status: values.StepCompleted, Value: result, Duration: time.Since(start)})
}

// fail records the step's terminal failure and applies its on_error
// directive: abort the run, or (non-recursively) jump to a named fallback
// step run once in this same call, never chaining a second fallback.
func (x *WorkflowExecutor) fail(ctx context.Context, stepID string, step blueprint.WorkflowStep, env *execution.ValueEnvironment, start time.Time, cause error) error {
	detail := &wireformat.ErrorDetail{Message: cause.Error(), Type: "runtime"}
	_ = env.Record(stepID, execution.StepOutcome{Status: values.StepFailed, Error: detail, Duration: time.Since(start)})

	if step.OnError == "" || step.OnError == blueprint.AbortOnError {
		_ = env.Record(stepID+"/abort", execution.StepOutcome{Status: values.StepAborted, Error: detail})
		return cause
	}

	fallback, ok := x.findStep(step.OnError)
	if !ok {
		return apperrors.NewStepTemplateError(stepID, fmt.Sprintf("on_error fallback step %q does not exist", step.OnError))
	}

	// The fallback itself is run with on_error forced to abort: the
	// mechanism is explicitly non-recursive per spec §4.7.
	fallback.OnError = blueprint.AbortOnError
	return x.runStep(ctx, fallback, env)
}

func (x *WorkflowExecutor) findStep(id string) (blueprint.WorkflowStep, bool) {
	for _, step := range x.steps {
		if step.ID.String() == id {
			return step, true
		}
	}
	return blueprint.WorkflowStep{}, false
}

func (x *WorkflowExecutor) evaluateCondition(stepID, template string, env *execution.ValueEnvironment) (skip bool, err error) {
	value, err := x.template.ResolveCondition(stepID, template, env)
	if err != nil {
		return false, err
	}
	return !Truthy(value), nil
}

func (x *WorkflowExecutor) expandArgs(stepID string, step blueprint.WorkflowStep, env *execution.ValueEnvironment) (map[string]wireformat.Value, error) {
	args := make(map[string]wireformat.Value, len(step.Args)+1)

	if step.Input != "" {
		rendered, err := x.template.Expand(stepID, step.Input, env)
		if err != nil {
			return nil, err
		}
		args["input"] = wireformat.Value{Kind: wireformat.KindString, Str: rendered}
	}

	for name, template := range step.Args {
		rendered, err := x.template.Expand(stepID, template, env)
		if err != nil {
			return nil, err
		}
		args[name] = wireformat.Value{Kind: wireformat.KindString, Str: rendered}
	}

	return args, nil
}
