package services

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/pypes-dev/pypes/internal/application/errors"
	"github.com/pypes-dev/pypes/internal/application/ports"
	"github.com/pypes-dev/pypes/internal/domain/blueprint"
	domainservices "github.com/pypes-dev/pypes/internal/domain/services"
)

// componentNode adapts an accepted component's wiring edges into the
// domain's generic DependencyNode shape, so instantiation order reuses the
// same Kahn's-algorithm leveler the workflow executor uses for step order.
type componentNode struct {
	name      string
	providers []string
}

func (n componentNode) NodeID() string     { return n.name }
func (n componentNode) DependsOn() []string { return n.providers }

// Linker turns an accepted blueprint into a set of instantiated components
// ready to invoke. It never decides policy; that already happened in the
// analyser. It only resolves bindings and instantiation order.
type Linker struct {
	runtimeFactory ports.RuntimeFactory
	hostProvider   ports.HostCapabilityProvider
	loader         ports.ComponentLoader
}

// NewLinker returns a Linker wired to the given collaborators.
func NewLinker(runtimeFactory ports.RuntimeFactory, hostProvider ports.HostCapabilityProvider, loader ports.ComponentLoader) *Linker {
	return &Linker{runtimeFactory: runtimeFactory, hostProvider: hostProvider, loader: loader}
}

// LinkedComponent pairs an instantiated component with the world the loader
// resolved for it, so the value proxy can look up call signatures.
type LinkedComponent struct {
	Instance ports.ComponentInstance
	World    blueprint.ComponentWorld
}

// Link loads and instantiates every component in bp in dependency order,
// binding `host`-wired imports to the Host Capability Provider and
// component-wired imports to the already-instantiated provider's instance.
func (l *Linker) Link(ctx context.Context, bp *blueprint.Blueprint) (map[string]LinkedComponent, error) {
	order, err := l.instantiationOrder(bp)
	if err != nil {
		return nil, err
	}

	runtime, err := l.runtimeFactory.NewRuntime(ctx)
	if err != nil {
		return nil, apperrors.NewInstantiationFailed("", err)
	}

	linked := make(map[string]LinkedComponent, len(bp.Components))

	for _, level := range order {
		artifacts, err := l.loadLevel(ctx, bp, level.Nodes)
		if err != nil {
			return nil, err
		}

		for _, node := range level.Nodes {
			artifact := artifacts[node.name]

			bindings, err := l.resolveBindings(bp, node.name, linked)
			if err != nil {
				return nil, err
			}

			instance, err := runtime.Instantiate(ctx, artifact, bindings)
			if err != nil {
				return nil, apperrors.NewInstantiationFailed(node.name, err)
			}

			linked[node.name] = LinkedComponent{Instance: instance, World: artifact.World}
		}
	}

	return linked, nil
}

// loadLevel resolves every component artifact within one dependency level
// concurrently: nodes at the same level share no binding relationship, so
// their artifacts (often the same plugin fetched once and cached by the
// loader's singleflight group) can be loaded in parallel.
func (l *Linker) loadLevel(ctx context.Context, bp *blueprint.Blueprint, nodes []componentNode) (map[string]*ports.ComponentArtifact, error) {
	group, groupCtx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	artifacts := make(map[string]*ports.ComponentArtifact, len(nodes))

	for _, node := range nodes {
		node := node
		ref, ok := bp.Components[node.name]
		if !ok {
			return nil, apperrors.NewArtifactNotFound(node.name, "", fmt.Errorf("blueprint has no component named %q", node.name))
		}

		group.Go(func() error {
			artifact, err := l.loader.Load(groupCtx, ref)
			if err != nil {
				return apperrors.NewArtifactNotFound(node.name, ref.Location, err)
			}
			mu.Lock()
			artifacts[node.name] = artifact
			mu.Unlock()
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return artifacts, nil
}

// instantiationOrder computes a topological sort of the provider-component
// dependency graph. A component that provides an export used by another
// must be instantiated first; host-wired imports impose no ordering
// constraint since the Host Capability Provider always exists.
func (l *Linker) instantiationOrder(bp *blueprint.Blueprint) ([]domainservices.Level[componentNode], error) {
	providerSets := make(map[string]map[string]struct{}, len(bp.Components))
	for name := range bp.Components {
		providerSets[name] = make(map[string]struct{})
	}

	for _, edge := range bp.Wiring {
		if edge.Provider == blueprint.HostProvider {
			continue
		}
		providerSets[edge.Consumer][edge.Provider] = struct{}{}
	}

	nodes := make([]componentNode, 0, len(bp.Components))
	for name, providers := range providerSets {
		list := make([]string, 0, len(providers))
		for p := range providers {
			list = append(list, p)
		}
		nodes = append(nodes, componentNode{name: name, providers: list})
	}

	levels, err := domainservices.BuildLevels(nodes)
	if err != nil {
		return nil, apperrors.NewCyclicDependency(cycleComponents(bp))
	}
	return levels, nil
}

// cycleComponents names every component, for use in a CyclicDependency
// error when BuildLevels cannot resolve an order. Levels themselves don't
// distinguish which specific subset cycles; naming them all is the
// conservative, honest report.
func cycleComponents(bp *blueprint.Blueprint) []string {
	names := make([]string, 0, len(bp.Components))
	for name := range bp.Components {
		names = append(names, name)
	}
	return names
}

// resolveBindings builds the resolution scope for one component: exactly
// the imports listed in the wiring table for it, each bound to its
// provider.
func (l *Linker) resolveBindings(bp *blueprint.Blueprint, component string, linked map[string]LinkedComponent) ([]ports.ImportBinding, error) {
	var bindings []ports.ImportBinding

	for key, edge := range bp.Wiring {
		if key.Consumer != component {
			continue
		}

		if edge.Provider == blueprint.HostProvider {
			bindings = append(bindings, ports.ImportBinding{
				Interface: edge.ConsumerImport,
				Host:      l.hostProvider,
			})
			continue
		}

		provider, ok := linked[edge.Provider]
		if !ok {
			return nil, apperrors.NewInstantiationFailed(component, fmt.Errorf("provider %q not yet instantiated", edge.Provider))
		}
		bindings = append(bindings, ports.ImportBinding{
			Interface: edge.ConsumerImport,
			Component: provider.Instance,
		})
	}

	return bindings, nil
}
