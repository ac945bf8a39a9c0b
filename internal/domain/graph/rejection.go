package graph

import "fmt"

// RejectionReason is the closed set of reasons the analyser rejects a
// blueprint, matching the Binding and Policy error categories.
type RejectionReason string

const (
	UnboundImport     RejectionReason = "UnboundImport"
	UnsatisfiedExport RejectionReason = "UnsatisfiedExport"
	LethalTrifecta    RejectionReason = "LethalTrifecta"
	DeadlyDuo         RejectionReason = "DeadlyDuo"
)

// Rejection is the analyser's structured, machine-readable rejection
// record: the policy triggered, the offending component, and the incoming
// capability edges that caused each class to be included.
type Rejection struct {
	Reason    RejectionReason
	Component string
	Edges     []Edge
	Detail    string
}

func (r *Rejection) Error() string {
	if r.Component != "" {
		return fmt.Sprintf("%s: %s (%s)", r.Reason, r.Detail, r.Component)
	}
	return fmt.Sprintf("%s: %s", r.Reason, r.Detail)
}

func newRejection(reason RejectionReason, component string, edges []Edge, format string, args ...interface{}) *Rejection {
	return &Rejection{
		Reason:    reason,
		Component: component,
		Edges:     edges,
		Detail:    fmt.Sprintf(format, args...),
	}
}
