// Package apperrors defines application-level error types: the Binding,
// Loading, and Runtime categories. Configuration errors are
// blueprint.ParseError and Policy errors are graph.Rejection; both are
// domain-layer values, not application errors.
package apperrors

import "fmt"

// Kind is one of the fixed Binding/Loading/Runtime error categories.
type Kind string

const (
	// Binding
	CyclicDependency Kind = "cyclic_dependency"

	// Loading
	ArtifactNotFound Kind = "artifact_not_found"
	IntegrityFailure Kind = "integrity_failure"

	// Runtime
	InstantiationFailed Kind = "instantiation_failed"
	TypeMismatch        Kind = "type_mismatch"
	PayloadTooLarge     Kind = "payload_too_large"
	TemplateError       Kind = "template_error"
	StepInvocationFailed Kind = "step_invocation_failed"
	Cancelled           Kind = "cancelled"
	Timeout             Kind = "timeout"
)

// RuntimeError is the application layer's uniform error shape: a fixed
// Kind, the component and/or step it originated from, and an optional
// wrapped cause.
type RuntimeError struct {
	Kind      Kind
	Component string
	StepID    string
	Message   string
	Cause     error
}

func (e *RuntimeError) Error() string {
	loc := e.Component
	if e.StepID != "" {
		loc = fmt.Sprintf("%s (step %s)", loc, e.StepID)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Kind, loc, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, loc, e.Message)
}

func (e *RuntimeError) Unwrap() error {
	return e.Cause
}

func newRuntimeError(kind Kind, component, message string, cause error) *RuntimeError {
	return &RuntimeError{Kind: kind, Component: component, Message: message, Cause: cause}
}

// NewCyclicDependency reports an unbreakable instantiation cycle found by
// the linker's dependency leveling.
func NewCyclicDependency(components []string) *RuntimeError {
	return newRuntimeError(CyclicDependency, fmt.Sprint(components), "components depend on each other with no host-bound entry point to break the cycle", nil)
}

// NewArtifactNotFound reports a component location the loader could not
// resolve to bytes, local or remote.
func NewArtifactNotFound(component, location string, cause error) *RuntimeError {
	return &RuntimeError{Kind: ArtifactNotFound, Component: component, Message: fmt.Sprintf("location %q", location), Cause: cause}
}

// NewIntegrityFailure reports a fetched artifact whose digest did not match
// the registry manifest's declared checksum.
func NewIntegrityFailure(component, wantDigest, gotDigest string) *RuntimeError {
	return &RuntimeError{Kind: IntegrityFailure, Component: component, Message: fmt.Sprintf("checksum mismatch: want %s, got %s", wantDigest, gotDigest)}
}

// NewInstantiationFailed reports a runtime-level failure to instantiate a
// compiled component with its resolved import bindings.
func NewInstantiationFailed(component string, cause error) *RuntimeError {
	return newRuntimeError(InstantiationFailed, component, "component instantiation failed", cause)
}

// NewTypeMismatch reports a Value Proxy argument or return value that did
// not structurally match the target function's declared signature.
func NewTypeMismatch(component, function, detail string) *RuntimeError {
	return &RuntimeError{Kind: TypeMismatch, Component: component, Message: fmt.Sprintf("%s: %s", function, detail)}
}

// NewPayloadTooLarge reports a value exceeding the configured payload
// ceiling, on either the inbound or the outbound leg of a call.
func NewPayloadTooLarge(component string, size, ceiling int) *RuntimeError {
	return &RuntimeError{Kind: PayloadTooLarge, Component: component, Message: fmt.Sprintf("payload size %d exceeds ceiling %d", size, ceiling)}
}

// NewStepTemplateError reports a template expansion failure: an unknown
// filter or an unresolved step reference.
func NewStepTemplateError(stepID, detail string) *RuntimeError {
	return &RuntimeError{Kind: TemplateError, StepID: stepID, Message: detail}
}

// NewStepInvocationFailed reports a component trap surfaced through the
// linker, distinct from a structured error returned via the component's
// own declared return type.
func NewStepInvocationFailed(component, stepID string, cause error) *RuntimeError {
	return &RuntimeError{Kind: StepInvocationFailed, Component: component, StepID: stepID, Message: "component trapped", Cause: cause}
}

// NewCancelled reports a run cancelled at a step boundary.
func NewCancelled(stepID string) *RuntimeError {
	return &RuntimeError{Kind: Cancelled, StepID: stepID, Message: "run cancelled"}
}

// NewTimeout reports a run whose wall-clock timeout expired.
func NewTimeout(stepID string) *RuntimeError {
	return &RuntimeError{Kind: Timeout, StepID: stepID, Message: "run timed out"}
}
