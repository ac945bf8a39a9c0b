// Package services holds pure domain services: no I/O, no infrastructure
// dependencies, operating only on domain types and values.
package services

import "fmt"

// DependencyNode is anything that can be leveled and ordered by a directed
// dependency graph: workflow steps depending on other steps' outputs, or
// components depending on other components' exports during instantiation.
type DependencyNode interface {
	NodeID() string
	DependsOn() []string
}

// DependencyResolver computes topological levels and transitive closures
// over a set of DependencyNodes using Kahn's algorithm.
type DependencyResolver struct{}

// NewDependencyResolver creates a new dependency resolver service.
func NewDependencyResolver() *DependencyResolver {
	return &DependencyResolver{}
}

// Level groups nodes that share a dependency depth: every node in Level N
// depends only on nodes in levels < N, so nodes within the same level can
// be processed in any order (or in parallel).
type Level[T DependencyNode] struct {
	Depth int
	Nodes []T
}

// BuildLevels arranges nodes into dependency levels using Kahn's algorithm.
//
// Algorithm:
// 1. Build adjacency list and in-degree map
// 2. Find all nodes with no unmet dependencies (in-degree 0)
// 3. Process nodes level by level, decrementing in-degrees
// 4. Detect cycles (remaining nodes with in-degree > 0)
func BuildLevels[T DependencyNode](nodes []T) ([]Level[T], error) {
	byID := make(map[string]T, len(nodes))
	inDegree := make(map[string]int, len(nodes))
	dependents := make(map[string][]string) // nodeID -> nodes that depend on it

	for _, n := range nodes {
		byID[n.NodeID()] = n
		inDegree[n.NodeID()] = len(n.DependsOn())
		for _, dep := range n.DependsOn() {
			dependents[dep] = append(dependents[dep], n.NodeID())
		}
	}

	for _, n := range nodes {
		for _, dep := range n.DependsOn() {
			if _, ok := byID[dep]; !ok {
				return nil, fmt.Errorf("%s depends on non-existent node %s", n.NodeID(), dep)
			}
		}
	}

	var levels []Level[T]
	processed := make(map[string]bool, len(nodes))
	depth := 0

	for len(processed) < len(nodes) {
		var current []T
		for _, n := range nodes {
			if processed[n.NodeID()] {
				continue
			}
			if inDegree[n.NodeID()] == 0 {
				current = append(current, n)
			}
		}

		if len(current) == 0 {
			var remaining []string
			for _, n := range nodes {
				if !processed[n.NodeID()] {
					remaining = append(remaining, n.NodeID())
				}
			}
			return nil, fmt.Errorf("circular dependency detected among: %v", remaining)
		}

		levels = append(levels, Level[T]{Depth: depth, Nodes: current})

		for _, n := range current {
			processed[n.NodeID()] = true
			for _, dependent := range dependents[n.NodeID()] {
				inDegree[dependent]--
			}
		}

		depth++
	}

	return levels, nil
}

// TransitiveClosure computes, for each node, the full set of direct and
// indirect dependencies (nodeID -> set of dependency nodeIDs).
func TransitiveClosure[T DependencyNode](nodes []T) (map[string]map[string]bool, error) {
	result := make(map[string]map[string]bool, len(nodes))
	byID := make(map[string]T, len(nodes))

	for _, n := range nodes {
		byID[n.NodeID()] = n
		result[n.NodeID()] = make(map[string]bool)
	}

	for _, n := range nodes {
		for _, dep := range n.DependsOn() {
			if _, ok := byID[dep]; !ok {
				return nil, fmt.Errorf("%s depends on non-existent node %s", n.NodeID(), dep)
			}
		}
	}

	var compute func(id string, visiting map[string]bool) error
	compute = func(id string, visiting map[string]bool) error {
		if visiting[id] {
			return fmt.Errorf("circular dependency detected at %s", id)
		}

		n, ok := byID[id]
		if !ok {
			return fmt.Errorf("%s not found", id)
		}

		visiting[id] = true
		defer func() { visiting[id] = false }()

		for _, dep := range n.DependsOn() {
			result[id][dep] = true

			if err := compute(dep, visiting); err != nil {
				return err
			}

			for transDep := range result[dep] {
				result[id][transDep] = true
			}
		}

		return nil
	}

	for _, n := range nodes {
		if err := compute(n.NodeID(), make(map[string]bool)); err != nil {
			return nil, err
		}
	}

	return result, nil
}
