package dto

import (
	"time"

	"github.com/pypes-dev/pypes/internal/domain/capabilities"
	"github.com/pypes-dev/pypes/internal/domain/execution"
	"github.com/pypes-dev/pypes/internal/domain/graph"
)

// RunResponse contains the result of running (or verifying) a blueprint.
type RunResponse struct {
	// Accepted reports the analyser's verdict. When false, Rejection is set
	// and no component was instantiated.
	Accepted  bool
	Analysis  AnalysisSummary
	Rejection *RejectionSummary

	// Environment is populated when the run proceeded past analysis; nil
	// for a verify-only run.
	Environment *execution.ValueEnvironment

	Metadata    ResponseMetadata
	Diagnostics Diagnostics
}

// ResponseMetadata contains metadata about the response.
type ResponseMetadata struct {
	// RequestID from the original request
	RequestID string

	// ProcessedAt is when the request was processed
	ProcessedAt time.Time

	// Duration is how long the request took
	Duration time.Duration
}

// Diagnostics contains diagnostic information about a run.
type Diagnostics struct {
	// Warnings are non-fatal issues encountered (e.g. --allow-unsafe used).
	Warnings []string
}

// AnalysisSummary is the machine-readable shape of an Accepted analysis,
// fed to an ports.OutputFormatter.
type AnalysisSummary struct {
	PolicyChecksSkipped bool
	Labels              map[string][]string // component -> capability class names
}

// EdgeSummary names one offending wiring edge and the classes it carried.
type EdgeSummary struct {
	Consumer       string
	ConsumerImport string
	Provider       string
	ProviderExport string
	Classes        []string
}

// RejectionSummary is the machine-readable record the analyser produces on
// rejection: the policy triggered, the offending component, and the
// incoming capability edges that caused each class to be included.
type RejectionSummary struct {
	Reason    string
	Component string
	Edges     []EdgeSummary
	Detail    string
}

// NewRejectionSummary converts a domain Rejection into its DTO shape.
func NewRejectionSummary(rej *graph.Rejection) *RejectionSummary {
	if rej == nil {
		return nil
	}

	summary := &RejectionSummary{
		Reason:    string(rej.Reason),
		Component: rej.Component,
		Detail:    rej.Detail,
	}

	for _, edge := range rej.Edges {
		summary.Edges = append(summary.Edges, EdgeSummary{
			Consumer:       edge.Consumer,
			ConsumerImport: edge.ConsumerImport.Qualified(),
			Provider:       edge.Provider,
			ProviderExport: edge.ProviderExport.Qualified(),
			Classes:        classNames(edge.Classes),
		})
	}

	return summary
}

// NewAnalysisSummary converts an Accepted graph into its DTO shape.
func NewAnalysisSummary(accepted *graph.Accepted) AnalysisSummary {
	summary := AnalysisSummary{
		PolicyChecksSkipped: accepted.PolicyChecksSkipped,
		Labels:              make(map[string][]string, len(accepted.Graph.Labels)),
	}

	for component, label := range accepted.Graph.Labels {
		summary.Labels[component] = classNames(label)
	}

	return summary
}

func classNames(set capabilities.Set) []string {
	classes := set.Slice()
	names := make([]string, len(classes))
	for i, c := range classes {
		names[i] = c.String()
	}
	return names
}
