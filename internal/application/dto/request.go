// Package dto contains data transfer objects for application layer use cases.
package dto

// RunOptions controls how a blueprint is analysed and, if accepted, run.
type RunOptions struct {
	// VerifyOnly runs the analyser and stops; no component is instantiated.
	VerifyOnly bool

	// AllowUnsafe bypasses the Lethal Trifecta and Deadly Duo checks. The
	// analyser still runs steps 1-3 and 6; the run is flagged as unsafe.
	AllowUnsafe bool

	// Entrypoint, if set, skips the declarative workflow and invokes this
	// component's `run` export directly.
	Entrypoint string
}

// RunRequest encapsulates all inputs needed to run a blueprint.
type RunRequest struct {
	ConfigPath string
	Options    RunOptions
	Metadata   RequestMetadata
}

// RequestMetadata contains metadata for request tracking.
type RequestMetadata struct {
	// RequestID uniquely identifies this request
	RequestID string
}
