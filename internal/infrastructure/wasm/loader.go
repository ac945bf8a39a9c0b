package wasm

import (
	"context"
	"fmt"
	"os"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/pypes-dev/pypes/internal/application/ports"
	"github.com/pypes-dev/pypes/internal/domain/blueprint"
	"github.com/tetratelabs/wazero"
)

// Loader implements ports.ComponentLoader: it resolves a ComponentRef's
// location to bytes (local file, or a remote:// registry fetch followed
// by a digest check), then derives the component's ComponentWorld by
// compiling it and reading its pypes:world custom section, never
// instantiating it. Results are cached by location for the loader's
// lifetime, since the same component is frequently wired into more than
// one blueprint component slot across a run.
//
// Concurrent loads of the same location (independent steps wiring the
// same plugin) are deduplicated with a singleflight.Group: readers share
// one resolution rather than racing to fetch and compile the artifact
// twice. The cache itself is guarded by a plain mutex since writes only
// ever add, never mutate, an existing entry.
type Loader struct {
	fetcher  ports.RegistryFetcher
	digester ports.ArtifactDigester

	mu    sync.Mutex
	cache map[string]*ports.ComponentArtifact
	group singleflight.Group
}

// NewLoader returns a Loader. fetcher and digester may be nil if the
// blueprints this process loads never reference remote:// locations.
func NewLoader(fetcher ports.RegistryFetcher, digester ports.ArtifactDigester) *Loader {
	return &Loader{fetcher: fetcher, digester: digester, cache: make(map[string]*ports.ComponentArtifact)}
}

// Load resolves ref to a ComponentArtifact.
func (l *Loader) Load(ctx context.Context, ref blueprint.ComponentRef) (*ports.ComponentArtifact, error) {
	l.mu.Lock()
	cached, ok := l.cache[ref.Location]
	l.mu.Unlock()
	if ok {
		return cached, nil
	}

	result, err, _ := l.group.Do(ref.Location, func() (interface{}, error) {
		return l.load(ctx, ref)
	})
	if err != nil {
		return nil, err
	}
	return result.(*ports.ComponentArtifact), nil
}

func (l *Loader) load(ctx context.Context, ref blueprint.ComponentRef) (*ports.ComponentArtifact, error) {
	bytes, err := l.resolveBytes(ctx, ref)
	if err != nil {
		return nil, err
	}

	runtime := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfig().WithCompilationCache(globalCache))
	defer func() { _ = runtime.Close(ctx) }()

	compiled, err := runtime.CompileModule(ctx, bytes)
	if err != nil {
		return nil, fmt.Errorf("wasm: compiling component %q at %s: %w", ref.Name, ref.Location, err)
	}

	world, err := decodeWorld(compiled)
	if err != nil {
		return nil, fmt.Errorf("wasm: describing component %q: %w", ref.Name, err)
	}

	artifact := &ports.ComponentArtifact{Name: ref.Name, World: world, Bytes: bytes}

	l.mu.Lock()
	l.cache[ref.Location] = artifact
	l.mu.Unlock()

	return artifact, nil
}

// resolveBytes reads a local path directly, or fetches and digest-checks a
// remote:// location through the registry collaborator.
func (l *Loader) resolveBytes(ctx context.Context, ref blueprint.ComponentRef) ([]byte, error) {
	if !ref.IsRemote() {
		data, err := os.ReadFile(ref.Location)
		if err != nil {
			return nil, fmt.Errorf("wasm: reading component %q from %s: %w", ref.Name, ref.Location, err)
		}
		return data, nil
	}

	if l.fetcher == nil {
		return nil, fmt.Errorf("wasm: component %q names a remote location %s but no registry fetcher is configured", ref.Name, ref.Location)
	}

	artifact, err := l.fetcher.Fetch(ctx, ref.Location)
	if err != nil {
		return nil, fmt.Errorf("wasm: fetching component %q from %s: %w", ref.Name, ref.Location, err)
	}

	data, err := os.ReadFile(artifact.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("wasm: reading fetched component %q: %w", ref.Name, err)
	}

	if l.digester != nil && artifact.Checksum != "" {
		if got := l.digester.DigestBytes(data); got != artifact.Checksum {
			return nil, fmt.Errorf("wasm: component %q checksum mismatch: manifest says %s, fetched artifact is %s", ref.Name, artifact.Checksum, got)
		}
	}

	return data, nil
}
