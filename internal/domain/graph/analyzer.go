package graph

import (
	"github.com/pypes-dev/pypes/internal/domain/blueprint"
	"github.com/pypes-dev/pypes/internal/domain/capabilities"
)

// Analyzer decides whether an otherwise well-formed Blueprint is safe to
// execute. It is total, deterministic, and never instantiates or runs any
// component — its output is always a value: an Accepted graph or a
// structured Rejection.
type Analyzer struct {
	taxonomy *capabilities.Taxonomy
}

// NewAnalyzer returns an Analyzer backed by the given taxonomy.
func NewAnalyzer(taxonomy *capabilities.Taxonomy) *Analyzer {
	return &Analyzer{taxonomy: taxonomy}
}

// Analyze runs the six-step algorithm against bp, using worlds (the
// component loader's resolved import/export sets, keyed by component name)
// and hostInterfaces (the Host Capability Provider's advertised set).
//
// When allowUnsafe is true, steps 4 and 5 (Lethal Trifecta, Deadly Duo) are
// skipped; steps 1–3 and 6 always run, per Open Question (a).
func (a *Analyzer) Analyze(bp *blueprint.Blueprint, worlds map[string]blueprint.ComponentWorld, hostInterfaces []blueprint.InterfaceName, allowUnsafe bool) (*Accepted, *Rejection) {
	if rej := a.checkCompleteness(bp, worlds); rej != nil {
		return nil, rej
	}

	if rej := a.checkProviderValidity(bp, worlds, hostInterfaces); rej != nil {
		return nil, rej
	}

	g := a.buildGraph(bp, worlds)

	if !allowUnsafe {
		if rej := a.checkLethalTrifecta(g); rej != nil {
			return nil, rej
		}
		if rej := a.checkDeadlyDuo(g); rej != nil {
			return nil, rej
		}
	}

	if rej := a.checkWorkflow(bp, worlds); rej != nil {
		return nil, rej
	}

	return &Accepted{Graph: g, PolicyChecksSkipped: allowUnsafe}, nil
}

// checkCompleteness implements step 1: every declared import of every
// component has exactly one binding in the wiring table.
func (a *Analyzer) checkCompleteness(bp *blueprint.Blueprint, worlds map[string]blueprint.ComponentWorld) *Rejection {
	for name := range bp.Components {
		world := worlds[name]
		for _, imp := range world.Imports {
			key := blueprint.WiringKey{Consumer: name, Import: imp.Qualified()}
			if _, bound := bp.Wiring[key]; !bound {
				return newRejection(UnboundImport, name, nil, "component %q declares import %q with no wiring entry", name, imp.Qualified())
			}
		}
	}
	return nil
}

// checkProviderValidity implements step 2: every edge's provider actually
// satisfies the consumer's import, either via the host's advertised set or
// the provider component's exports.
func (a *Analyzer) checkProviderValidity(bp *blueprint.Blueprint, worlds map[string]blueprint.ComponentWorld, hostInterfaces []blueprint.InterfaceName) *Rejection {
	for _, edge := range bp.Wiring {
		if edge.Provider == blueprint.HostProvider {
			if !containsInterface(hostInterfaces, edge.ProviderExport) {
				return newRejection(UnsatisfiedExport, edge.Consumer, nil, "host does not advertise %q, wired to %q", edge.ProviderExport.Qualified(), edge.Consumer)
			}
			continue
		}

		providerWorld := worlds[edge.Provider]
		if !providerWorld.ExportsInterface(edge.ProviderExport) {
			return newRejection(UnsatisfiedExport, edge.Consumer, nil, "provider %q does not export %q, wired to %q", edge.Provider, edge.ProviderExport.Qualified(), edge.Consumer)
		}
	}
	return nil
}

// buildGraph implements step 3: classify every wiring edge via the
// taxonomy and union those classes into the consumer's node label.
func (a *Analyzer) buildGraph(bp *blueprint.Blueprint, worlds map[string]blueprint.ComponentWorld) *Graph {
	g := &Graph{Labels: make(map[string]capabilities.Set, len(bp.Components))}
	for name := range bp.Components {
		g.Labels[name] = capabilities.NewSet()
	}

	for _, edge := range bp.Wiring {
		world := worlds[edge.Consumer]
		functions := world.ImportFunctions[edge.ConsumerImport.Qualified()]
		classes := a.taxonomy.ClassifyFunctions(edge.ConsumerImport.Qualified(), functions)

		g.Labels[edge.Consumer] = g.Labels[edge.Consumer].Union(classes)
		g.Edges = append(g.Edges, Edge{
			Consumer:       edge.Consumer,
			ConsumerImport: edge.ConsumerImport,
			Provider:       edge.Provider,
			ProviderExport: edge.ProviderExport,
			Classes:        classes,
		})
	}

	return g
}

// checkLethalTrifecta implements step 4.
func (a *Analyzer) checkLethalTrifecta(g *Graph) *Rejection {
	for component, label := range g.Labels {
		if label.IsSupersetOf(capabilities.LethalTrifecta) {
			edges := g.EdgesFor(component, capabilities.LethalTrifecta)
			return newRejection(LethalTrifecta, component, edges, "component %q combines UntrustedContentSource, SensitiveDataSource, and Exfiltration", component)
		}
	}
	return nil
}

// checkDeadlyDuo implements step 5.
func (a *Analyzer) checkDeadlyDuo(g *Graph) *Rejection {
	for component, label := range g.Labels {
		if label.IsSupersetOf(capabilities.DeadlyDuo) {
			edges := g.EdgesFor(component, capabilities.DeadlyDuo)
			return newRejection(DeadlyDuo, component, edges, "component %q combines UntrustedContentSource and DestructiveAction", component)
		}
	}
	return nil
}

// checkWorkflow implements step 6: every step's component and function
// must exist. Template reference existence and ordering are already
// enforced at parse time by blueprint.New.
func (a *Analyzer) checkWorkflow(bp *blueprint.Blueprint, worlds map[string]blueprint.ComponentWorld) *Rejection {
	for _, step := range bp.Steps {
		world := worlds[step.Component]
		if !world.ExportsFunction(step.Function.Interface, step.Function.Function) {
			return newRejection(UnsatisfiedExport, step.Component, nil, "workflow step %q calls %s.%s, which %q does not export", step.ID.String(), step.Function.Interface.Qualified(), step.Function.Function, step.Component)
		}
	}
	return nil
}

func containsInterface(set []blueprint.InterfaceName, iface blueprint.InterfaceName) bool {
	for _, candidate := range set {
		if candidate.Equals(iface) {
			return true
		}
	}
	return false
}
