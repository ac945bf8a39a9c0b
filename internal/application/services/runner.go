package services

import (
	"context"
	"fmt"

	apperrors "github.com/pypes-dev/pypes/internal/application/errors"
	"github.com/pypes-dev/pypes/internal/application/ports"
	"github.com/pypes-dev/pypes/internal/domain/blueprint"
	"github.com/pypes-dev/pypes/internal/domain/execution"
	"github.com/pypes-dev/pypes/internal/domain/graph"
	"github.com/pypes-dev/pypes/internal/domain/values"
	"github.com/pypes-dev/pypes/wireformat"
)

// Runner is the composition point of the whole pipeline: it resolves every
// component's world, asks the Analyzer whether the wiring is safe to run,
// and — only once the blueprint is Accepted — links and executes it. It is
// the one place that knows about every other collaborator; cmd/pypes talks
// to nothing else.
type Runner struct {
	loader          ports.ComponentLoader
	analyzer        *graph.Analyzer
	hostProvider    ports.HostCapabilityProvider
	runtimeFactory  ports.RuntimeFactory
	maxPayloadBytes int
}

// NewRunner returns a Runner wired to its collaborators. maxPayloadBytes
// comes from the loaded SystemConfig and is handed straight to the Value
// Proxy it builds internally for each Run.
func NewRunner(loader ports.ComponentLoader, analyzer *graph.Analyzer, hostProvider ports.HostCapabilityProvider, runtimeFactory ports.RuntimeFactory, maxPayloadBytes int) *Runner {
	return &Runner{
		loader:          loader,
		analyzer:        analyzer,
		hostProvider:    hostProvider,
		runtimeFactory:  runtimeFactory,
		maxPayloadBytes: maxPayloadBytes,
	}
}

// RunResult is everything a caller (the CLI, a test) needs to report a
// finished run: the outcome of every step, the run's identity, and whether
// --allow-unsafe bypassed the policy checks that otherwise would have run.
type RunResult struct {
	RunID               values.RunID
	Environment         *execution.ValueEnvironment
	PolicyChecksSkipped bool
}

// Verify loads every component's world and runs the six-step analysis
// without linking or instantiating anything. It is what `--verify-only`
// calls, and what Run calls internally before proceeding.
func (r *Runner) Verify(ctx context.Context, bp *blueprint.Blueprint, allowUnsafe bool) (*graph.Accepted, *graph.Rejection, error) {
	worlds, err := r.loadWorlds(ctx, bp)
	if err != nil {
		return nil, nil, err
	}

	accepted, rejection := r.analyzer.Analyze(bp, worlds, r.hostProvider.Advertises(), allowUnsafe)
	return accepted, rejection, nil
}

// Run verifies bp, then links and executes its workflow to completion. A
// rejection is returned as-is (not an error) so the caller can format it
// (e.g. as a SARIF report) without unwrapping an error chain.
func (r *Runner) Run(ctx context.Context, bp *blueprint.Blueprint, allowUnsafe bool) (*RunResult, *graph.Rejection, error) {
	_, rejection, err := r.Verify(ctx, bp, allowUnsafe)
	if err != nil {
		return nil, nil, err
	}
	if rejection != nil {
		return nil, rejection, nil
	}

	linker := NewLinker(r.runtimeFactory, r.hostProvider, r.loader)
	linked, err := linker.Link(ctx, bp)
	if err != nil {
		return nil, nil, err
	}

	proxy := NewValueProxy(r.maxPayloadBytes)
	template := NewTemplateEngine()
	executor := NewWorkflowExecutor(proxy, template, linked)

	runID := values.NewRunID()
	env, err := executor.Run(ctx, runID, bp)
	if err != nil {
		return &RunResult{RunID: runID, Environment: env}, nil, err
	}

	return &RunResult{RunID: runID, Environment: env, PolicyChecksSkipped: allowUnsafe}, nil, nil
}

// loadWorlds resolves every component named in bp through the loader,
// independently of any wiring concern — the Analyzer needs every world
// up front to check import/export satisfaction before it ever builds the
// capability graph.
func (r *Runner) loadWorlds(ctx context.Context, bp *blueprint.Blueprint) (map[string]blueprint.ComponentWorld, error) {
	worlds := make(map[string]blueprint.ComponentWorld, len(bp.Components))
	for name, ref := range bp.Components {
		artifact, err := r.loader.Load(ctx, ref)
		if err != nil {
			return nil, apperrors.NewArtifactNotFound(name, ref.Location, err)
		}
		worlds[name] = artifact.World
	}
	return worlds, nil
}

// Invoke verifies bp, links it, then calls exactly one exported function
// directly, bypassing the workflow DAG entirely. It backs the CLI's
// `--entrypoint` flag (spec §6): run one function as if it were the whole
// workflow, still behind the same capability analysis and Value Proxy.
func (r *Runner) Invoke(ctx context.Context, bp *blueprint.Blueprint, allowUnsafe bool, component string, target blueprint.QualifiedFunction, args map[string]wireformat.Value) (wireformat.Value, *graph.Rejection, error) {
	_, rejection, err := r.Verify(ctx, bp, allowUnsafe)
	if err != nil {
		return wireformat.Value{}, nil, err
	}
	if rejection != nil {
		return wireformat.Value{}, rejection, nil
	}

	linker := NewLinker(r.runtimeFactory, r.hostProvider, r.loader)
	linked, err := linker.Link(ctx, bp)
	if err != nil {
		return wireformat.Value{}, nil, err
	}

	entry, ok := linked[component]
	if !ok {
		return wireformat.Value{}, nil, fmt.Errorf("services: entrypoint component %q is not in the blueprint", component)
	}

	proxy := NewValueProxy(r.maxPayloadBytes)
	result, err := proxy.Invoke(ctx, component, "", entry.World, target, args, entry.Instance)
	if err != nil {
		return wireformat.Value{}, nil, err
	}
	return result, nil, nil
}

// EntrypointFunction resolves the QualifiedFunction the CLI's --entrypoint
// flag should invoke: the single exported interface on component that
// declares a "run" function. Ambiguous (more than one) or missing worlds
// are reported as errors rather than guessed at.
func (r *Runner) EntrypointFunction(ctx context.Context, bp *blueprint.Blueprint, component string) (blueprint.QualifiedFunction, error) {
	ref, ok := bp.Components[component]
	if !ok {
		return blueprint.QualifiedFunction{}, fmt.Errorf("services: entrypoint component %q is not in the blueprint", component)
	}

	artifact, err := r.loader.Load(ctx, ref)
	if err != nil {
		return blueprint.QualifiedFunction{}, apperrors.NewArtifactNotFound(component, ref.Location, err)
	}

	var found *blueprint.InterfaceName
	for i := range artifact.World.Exports {
		iface := artifact.World.Exports[i]
		if artifact.World.ExportsFunction(iface, "run") {
			if found != nil {
				return blueprint.QualifiedFunction{}, fmt.Errorf("services: component %q exports \"run\" on more than one interface", component)
			}
			found = &iface
		}
	}
	if found == nil {
		return blueprint.QualifiedFunction{}, fmt.Errorf("services: component %q declares no \"run\" export", component)
	}

	return blueprint.QualifiedFunction{Interface: *found, Function: "run"}, nil
}
