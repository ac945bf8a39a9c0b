// Package ports defines interfaces for infrastructure dependencies. These
// are the "ports" in hexagonal architecture: abstractions the application
// layer depends on but does not implement.
package ports

import (
	"context"
	"io"

	"github.com/pypes-dev/pypes/internal/domain/blueprint"
	"github.com/pypes-dev/pypes/wireformat"
)

// ComponentArtifact carries a resolved component's bytecode and its parsed
// world (declared imports and exports), as produced by the Component Loader.
type ComponentArtifact struct {
	Name  string
	World blueprint.ComponentWorld
	Bytes []byte
}

// ComponentLoader resolves a ComponentRef's location to a ComponentArtifact,
// caching by canonical location for the run's duration.
type ComponentLoader interface {
	Load(ctx context.Context, ref blueprint.ComponentRef) (*ComponentArtifact, error)
}

// ComponentInstance is a single instantiated, invocable component. Binding
// of its imports has already happened by the time the linker hands one
// back; Invoke crosses into the sandbox.
type ComponentInstance interface {
	Invoke(ctx context.Context, iface blueprint.InterfaceName, function string, args map[string]wireformat.Value) (wireformat.Value, error)
	Close(ctx context.Context) error
}

// ImportBinding is what the linker hands to the runtime for one resolved
// import: either the Host Capability Provider or another component's
// instance, narrowed to the single exported interface being bound.
type ImportBinding struct {
	Interface blueprint.InterfaceName
	Host      HostCapabilityProvider
	Component ComponentInstance
}

// ComponentRuntime abstracts the sandboxed component runtime: compiling a
// component's bytecode and instantiating it with a resolved set of import
// bindings.
type ComponentRuntime interface {
	Instantiate(ctx context.Context, artifact *ComponentArtifact, bindings []ImportBinding) (ComponentInstance, error)
	Close(ctx context.Context) error
}

// RuntimeFactory creates ComponentRuntime instances, so the application
// layer never imports a concrete wasm runtime package directly.
type RuntimeFactory interface {
	NewRuntime(ctx context.Context) (ComponentRuntime, error)
}

// HostCapabilityProvider implements the trusted side of `host.*` wiring
// entries: the fixed, enumerated set of wasi:* interfaces.
type HostCapabilityProvider interface {
	// Advertises returns the interfaces this provider implements.
	Advertises() []blueprint.InterfaceName

	FilesystemRead(ctx context.Context, req wireformat.FilesystemReadRequestWire) wireformat.FilesystemReadResponseWire
	FilesystemWrite(ctx context.Context, req wireformat.FilesystemWriteRequestWire) wireformat.FilesystemWriteResponseWire
	HTTPOutgoing(ctx context.Context, req wireformat.HTTPRequestWire) wireformat.HTTPResponseWire
	EnvironmentRead(ctx context.Context, req wireformat.EnvironmentReadRequestWire) wireformat.EnvironmentReadResponseWire
	Random(ctx context.Context, req wireformat.RandomRequestWire) wireformat.RandomResponseWire
}

// SystemConfig is the application-layer view of process-wide settings:
// the filesystem root, HTTP allowlist, environment allowlist, and payload
// ceiling the Host Capability Provider and Value Proxy enforce.
type SystemConfig struct {
	FilesystemRoot    string
	HTTPAllowlist     []string
	EnvironmentAllow  []string
	MaxPayloadBytes   int
	MaxMagnitude      float64
	DefaultTimeoutSec int
}

// SystemConfigProvider loads process-wide configuration.
type SystemConfigProvider interface {
	LoadConfig(ctx context.Context, path string) (*SystemConfig, error)
}

// OutputWriter writes formatted output bytes to a destination (file path or
// stdout sentinel).
type OutputWriter interface {
	Write(ctx context.Context, data []byte, dest string) error
}

// Closer is a common interface for resources that need cleanup.
type Closer interface {
	io.Closer
}
