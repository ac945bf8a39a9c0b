package blueprint

import (
	"regexp"

	"github.com/pypes-dev/pypes/internal/domain/values"
)

// QualifiedFunction names a function on an interface, e.g.
// "wasi:http/outgoing-handler".handle.
type QualifiedFunction struct {
	Interface InterfaceName
	Function  string
}

// AbortOnError is the default on_error behaviour: a fatal step error aborts
// the workflow run.
const AbortOnError = "abort"

// WorkflowStep is one entry of "[[workflow.steps]]": an invocation of a
// component's exported function, with templated input, an optional
// condition, an error-handling directive, and arbitrary named keyword
// arguments forwarded to the call.
type WorkflowStep struct {
	ID        values.StepID
	Component string
	Function  QualifiedFunction
	Input     string
	Condition string
	OnError   string // "abort" or the id of a fallback step
	Args      map[string]string
}

// NodeID implements services.DependencyNode.
func (s WorkflowStep) NodeID() string {
	return s.ID.String()
}

// DependsOn implements services.DependencyNode: the set of step ids this
// step's templates reference, forming the workflow's implicit DAG.
func (s WorkflowStep) DependsOn() []string {
	seen := make(map[string]struct{})
	var out []string

	add := func(template string) {
		for _, ref := range ExtractStepReferences(template) {
			if _, ok := seen[ref]; ok {
				continue
			}
			seen[ref] = struct{}{}
			out = append(out, ref)
		}
	}

	add(s.Input)
	add(s.Condition)
	for _, v := range s.Args {
		add(v)
	}

	return out
}

// templateRefPattern matches "{{ <step-id>[.output[.path...]] [| filters] }}"
// and captures the leading step id.
var templateRefPattern = regexp.MustCompile(`\{\{\s*([A-Za-z][A-Za-z0-9_-]*)(?:\.output(?:\.[A-Za-z0-9_]+)*)?\s*(?:\|[^}]*)?\}\}`)

// ExtractStepReferences returns the distinct step ids referenced by a
// template string, in first-occurrence order.
func ExtractStepReferences(template string) []string {
	if template == "" {
		return nil
	}

	matches := templateRefPattern.FindAllStringSubmatch(template, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(matches))
	var out []string
	for _, m := range matches {
		ref := m[1]
		if _, ok := seen[ref]; ok {
			continue
		}
		seen[ref] = struct{}{}
		out = append(out, ref)
	}
	return out
}
