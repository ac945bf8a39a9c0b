// Package graph builds the capability graph from a Blueprint and decides
// whether it is safe to execute, without ever instantiating or running any
// component.
package graph

import (
	"github.com/pypes-dev/pypes/internal/domain/blueprint"
	"github.com/pypes-dev/pypes/internal/domain/capabilities"
)

// Edge is one wiring edge annotated with the capability classes it
// carries.
type Edge struct {
	Consumer       string
	ConsumerImport blueprint.InterfaceName
	Provider       string
	ProviderExport blueprint.InterfaceName
	Classes        capabilities.Set
}

// Graph is the capability graph: one label per component, accumulating the
// classes of every inbound capability edge, plus the annotated edges
// themselves for rejection reporting.
type Graph struct {
	Labels map[string]capabilities.Set
	Edges  []Edge
}

// EdgesFor returns the edges whose consumer is component and whose classes
// intersect any class in want — used to name the offending edges in a
// policy rejection.
func (g *Graph) EdgesFor(component string, want capabilities.Set) []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.Consumer != component {
			continue
		}
		for c := range want {
			if e.Classes.Contains(c) {
				out = append(out, e)
				break
			}
		}
	}
	return out
}
