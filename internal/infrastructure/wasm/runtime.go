package wasm

import (
	"context"
	"fmt"

	"github.com/pypes-dev/pypes/internal/application/ports"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
)

// globalCache lets every per-instance wazero.Runtime this package creates
// share compiled machine code for identical module bytes: each instance
// still calls CompileModule on its own Runtime (a CompiledModule is only
// ever instantiated on the Runtime that produced it), but the expensive
// compilation work underneath is only ever done once per distinct module.
var globalCache = wazero.NewCompilationCache()

// runtimeFactory implements ports.RuntimeFactory. It exists so the
// application layer never imports wazero directly.
type runtimeFactory struct {
	memoryLimitMB int
}

// NewRuntimeFactory returns a ports.RuntimeFactory backed by wazero.
// memoryLimitMB follows the same convention the compiled-in runtime
// config historically used: 0 selects a 256MB default, -1 is unlimited,
// and any positive value is an explicit ceiling.
func NewRuntimeFactory(memoryLimitMB int) ports.RuntimeFactory {
	return &runtimeFactory{memoryLimitMB: memoryLimitMB}
}

func (f *runtimeFactory) NewRuntime(ctx context.Context) (ports.ComponentRuntime, error) {
	return &Runtime{memoryLimitMB: f.memoryLimitMB}, nil
}

// Runtime is the application layer's ports.ComponentRuntime: it compiles
// and instantiates components, one isolated wazero.Runtime per instance,
// so that every instance's import namespace holds exactly its own
// resolved bindings and never leaks across components wired to different
// peers or host configurations.
type Runtime struct {
	memoryLimitMB int
}

// Instantiate compiles artifact.Bytes, creates a fresh isolated
// wazero.Runtime, registers a host module per resolved import binding,
// instantiates the guest module into it, and runs its _initialize entry
// point if present.
func (r *Runtime) Instantiate(ctx context.Context, artifact *ports.ComponentArtifact, bindings []ports.ImportBinding) (ports.ComponentInstance, error) {
	config := wazero.NewRuntimeConfig().WithCompilationCache(globalCache)
	if r.memoryLimitMB > 0 {
		pages := uint32(r.memoryLimitMB * 16) // 1 page = 64KB
		config = config.WithMemoryLimitPages(pages)
	}

	instanceRuntime := wazero.NewRuntimeWithConfig(ctx, config)

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, instanceRuntime); err != nil {
		_ = instanceRuntime.Close(ctx)
		return nil, fmt.Errorf("wasm: instantiating WASI for %s: %w", artifact.Name, err)
	}

	if err := registerImports(ctx, instanceRuntime, artifact.World, bindings); err != nil {
		_ = instanceRuntime.Close(ctx)
		return nil, err
	}

	compiled, err := instanceRuntime.CompileModule(ctx, artifact.Bytes)
	if err != nil {
		_ = instanceRuntime.Close(ctx)
		return nil, fmt.Errorf("wasm: compiling component %s: %w", artifact.Name, err)
	}

	module, err := instanceRuntime.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(artifact.Name))
	if err != nil {
		_ = instanceRuntime.Close(ctx)
		return nil, fmt.Errorf("wasm: instantiating component %s: %w", artifact.Name, err)
	}

	if initFn := module.ExportedFunction("_initialize"); initFn != nil {
		if _, err := initFn.Call(ctx); err != nil {
			_ = instanceRuntime.Close(ctx)
			return nil, fmt.Errorf("wasm: initializing component %s: %w", artifact.Name, err)
		}
	}

	return &componentInstance{
		name:    artifact.Name,
		runtime: instanceRuntime,
		module:  module,
		world:   artifact.World,
	}, nil
}

// Close releases no shared state directly: every instance returned by
// Instantiate owns and closes its own isolated wazero.Runtime.
func (r *Runtime) Close(ctx context.Context) error {
	return nil
}
