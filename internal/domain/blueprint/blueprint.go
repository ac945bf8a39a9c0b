// Package blueprint holds the in-memory representation of a parsed
// configuration: component references, the wiring table, and workflow
// steps. Parsing here is purely syntactic — it does not consult the
// capability taxonomy or any component artifact.
package blueprint

import (
	"github.com/pypes-dev/pypes/internal/domain/services"
	"github.com/pypes-dev/pypes/internal/domain/values"
)

// RawStep is the loader's syntactic representation of one
// "[[workflow.steps]]" entry, before its Function field has been split
// into an interface and a function name.
type RawStep struct {
	ID        string
	Component string
	Function  string // "<interface-qualified-name>.<function>"
	Input     string
	Condition string
	OnError   string
	Args      map[string]string
}

// Blueprint is the validated, internally consistent configuration: a set
// of named components, a wiring table with no duplicate keys, and an
// ordered sequence of workflow steps whose template references resolve
// only to strictly earlier steps.
type Blueprint struct {
	Components map[string]ComponentRef
	Wiring     map[WiringKey]WiringEdge
	Steps      []WorkflowStep
}

// New builds and validates a Blueprint from its three raw sections.
func New(componentsRaw map[string]string, wiringRaw map[string]string, rawSteps []RawStep) (*Blueprint, error) {
	components := make(map[string]ComponentRef, len(componentsRaw))
	for name, location := range componentsRaw {
		components[name] = ComponentRef{Name: name, Location: location}
	}

	wiring, err := buildWiring(components, wiringRaw)
	if err != nil {
		return nil, err
	}

	steps, err := buildSteps(components, rawSteps)
	if err != nil {
		return nil, err
	}

	if err := validateStepOrder(steps); err != nil {
		return nil, err
	}

	return &Blueprint{Components: components, Wiring: wiring, Steps: steps}, nil
}

func buildWiring(components map[string]ComponentRef, wiringRaw map[string]string) (map[WiringKey]WiringEdge, error) {
	wiring := make(map[WiringKey]WiringEdge, len(wiringRaw))

	for key, value := range wiringRaw {
		edge, err := parseWiringEntry(key, value)
		if err != nil {
			return nil, err
		}

		if _, ok := components[edge.Consumer]; !ok {
			return nil, newParseError(UnknownReference, "wiring entry %q refers to undeclared component %q", key, edge.Consumer)
		}
		if edge.Provider != HostProvider {
			if _, ok := components[edge.Provider]; !ok {
				return nil, newParseError(UnknownReference, "wiring entry %q refers to undeclared provider component %q", key, edge.Provider)
			}
		}

		wk := newWiringKey(edge.Consumer, edge.ConsumerImport)
		if _, dup := wiring[wk]; dup {
			return nil, newParseError(DuplicateName, "duplicate wiring entry for %s.%s", edge.Consumer, edge.ConsumerImport.Qualified())
		}
		wiring[wk] = edge
	}

	return wiring, nil
}

func buildSteps(components map[string]ComponentRef, rawSteps []RawStep) ([]WorkflowStep, error) {
	steps := make([]WorkflowStep, 0, len(rawSteps))
	seenIDs := make(map[string]struct{}, len(rawSteps))

	for _, raw := range rawSteps {
		id, err := values.NewStepID(raw.ID)
		if err != nil {
			return nil, newParseError(MalformedConfig, "workflow step: %v", err)
		}
		if _, dup := seenIDs[id.String()]; dup {
			return nil, newParseError(DuplicateName, "duplicate workflow step id %q", id.String())
		}
		seenIDs[id.String()] = struct{}{}

		if _, ok := components[raw.Component]; !ok {
			return nil, newParseError(UnknownReference, "workflow step %q refers to undeclared component %q", id.String(), raw.Component)
		}

		ifaceRaw, function, ok := cutLast(raw.Function, ".")
		if !ok || ifaceRaw == "" || function == "" {
			return nil, newParseError(MalformedConfig, "workflow step %q function %q does not match <interface>.<function>", id.String(), raw.Function)
		}
		iface, err := ParseInterfaceName(ifaceRaw)
		if err != nil {
			return nil, newParseError(MalformedConfig, "workflow step %q: %v", id.String(), err)
		}

		onError := raw.OnError
		if onError == "" {
			onError = AbortOnError
		}

		steps = append(steps, WorkflowStep{
			ID:        id,
			Component: raw.Component,
			Function:  QualifiedFunction{Interface: iface, Function: function},
			Input:     raw.Input,
			Condition: raw.Condition,
			OnError:   onError,
			Args:      raw.Args,
		})
	}

	return steps, nil
}

// validateStepOrder enforces that every template reference resolves to a
// step that both exists and appears strictly earlier in declared order —
// the parser rejects workflows that are not already in topological order
// (scenario: a forward reference is a parse-time TemplateError, not a
// runtime one).
func validateStepOrder(steps []WorkflowStep) error {
	declaredBefore := make(map[string]struct{}, len(steps))

	for _, step := range steps {
		for _, ref := range step.DependsOn() {
			if ref == step.ID.String() {
				return newParseError(TemplateError, "step %q references itself", step.ID.String())
			}
			if _, ok := declaredBefore[ref]; !ok {
				return newParseError(TemplateError, "step %q references %q, which is not an earlier step", step.ID.String(), ref)
			}
		}
		declaredBefore[step.ID.String()] = struct{}{}
	}

	return nil
}

// StepLevels groups the blueprint's workflow steps into dependency levels,
// reusing the same topological-sort machinery as the linker's
// instantiation ordering. Because validateStepOrder already guarantees
// declared order is topological, this always succeeds for a valid
// Blueprint.
func (b *Blueprint) StepLevels() ([]services.Level[WorkflowStep], error) {
	return services.BuildLevels(b.Steps)
}
