package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"

	apperrors "github.com/pypes-dev/pypes/internal/application/errors"
	"github.com/pypes-dev/pypes/internal/domain/execution"
	"github.com/pypes-dev/pypes/wireformat"
)

// templateSpanPattern matches a complete `{{ ... }}` span, capturing its
// interior. Mirrors the grammar blueprint.ExtractStepReferences parses for
// dependency extraction, but here the full interior (path and filters) is
// needed for substitution, not just the leading step id.
var templateSpanPattern = regexp.MustCompile(`\{\{(.*?)\}\}`)

// SupportedFilters is the fixed, enumerated filter set from spec §6. Any
// other filter name is a hard TemplateError.
var SupportedFilters = map[string]bool{
	"length":    true,
	"summarize": true,
	"json":      true,
	"upper":     true,
	"lower":     true,
}

// TemplateEngine expands `{{ step_id.output[.path] | filter(args) }}`
// expressions against a run's ValueEnvironment.
type TemplateEngine struct{}

// NewTemplateEngine returns a stateless template engine.
func NewTemplateEngine() *TemplateEngine {
	return &TemplateEngine{}
}

// Expand resolves every reference in template against env, applies its
// filter chain, and returns the fully substituted string. A template that
// is a single bare reference with no surrounding text returns that
// reference's value rendered as a string.
func (e *TemplateEngine) Expand(stepID, template string, env *execution.ValueEnvironment) (string, error) {
	var firstErr error

	result := templateSpanPattern.ReplaceAllStringFunc(template, func(span string) string {
		if firstErr != nil {
			return span
		}
		interior := templateSpanPattern.FindStringSubmatch(span)[1]
		rendered, err := e.resolveReference(stepID, strings.TrimSpace(interior), env)
		if err != nil {
			firstErr = err
			return span
		}
		return rendered
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// resolveReference handles one `{{ ... }}` span: ref is the raw interior
// text, e.g. "fetch_page.output.body | upper".
func (e *TemplateEngine) resolveReference(stepID, ref string, env *execution.ValueEnvironment) (string, error) {
	parts := strings.Split(ref, "|")
	pathExpr := strings.TrimSpace(parts[0])

	refStepID, path := splitStepPath(pathExpr)
	outcome, ok := env.Lookup(refStepID)
	if !ok {
		return "", apperrors.NewStepTemplateError(stepID, fmt.Sprintf("unresolved reference to step %q", refStepID))
	}

	value, err := navigate(outcome.Value, path)
	if err != nil {
		return "", apperrors.NewStepTemplateError(stepID, err.Error())
	}

	rendered := renderValue(value)

	for _, filterExpr := range parts[1:] {
		name, args := splitFilterCall(filterExpr)
		if !SupportedFilters[name] {
			return "", apperrors.NewStepTemplateError(stepID, fmt.Sprintf("unknown filter %q", name))
		}
		rendered, err = e.applyFilter(stepID, name, rendered, args)
		if err != nil {
			return "", err
		}
	}

	return rendered, nil
}

// ResolveCondition evaluates a condition template to the wireformat.Value
// it ultimately represents, so the falsy rule (empty sequence, empty
// string, boolean false, numeric zero) can be applied at the value level
// via Truthy rather than by string-matching the rendered form. A bare
// reference with no filter (the common case for a condition, e.g.
// "{{ fetch.output.items }}") preserves the value's native Kind, so an
// empty list or a numeric zero is recognized correctly; a condition with a
// filter chain collapses to the filter's rendered string, same as Expand.
func (e *TemplateEngine) ResolveCondition(stepID, template string, env *execution.ValueEnvironment) (wireformat.Value, error) {
	match := templateSpanPattern.FindStringSubmatch(template)
	if match == nil || match[0] != template {
		rendered, err := e.Expand(stepID, template, env)
		if err != nil {
			return wireformat.Value{}, err
		}
		return wireformat.Value{Kind: wireformat.KindString, Str: rendered}, nil
	}

	interior := strings.TrimSpace(match[1])
	parts := strings.Split(interior, "|")
	pathExpr := strings.TrimSpace(parts[0])

	refStepID, path := splitStepPath(pathExpr)
	outcome, ok := env.Lookup(refStepID)
	if !ok {
		return wireformat.Value{}, apperrors.NewStepTemplateError(stepID, fmt.Sprintf("unresolved reference to step %q", refStepID))
	}

	value, err := navigate(outcome.Value, path)
	if err != nil {
		return wireformat.Value{}, apperrors.NewStepTemplateError(stepID, err.Error())
	}

	if len(parts) == 1 {
		return value, nil
	}

	rendered, err := e.resolveReference(stepID, interior, env)
	if err != nil {
		return wireformat.Value{}, err
	}
	return wireformat.Value{Kind: wireformat.KindString, Str: rendered}, nil
}

// Truthy implements the condition-template falsy rule from spec §4.7: empty
// sequence, empty string, boolean false, numeric zero are all falsy.
func Truthy(v wireformat.Value) bool {
	switch v.Kind {
	case wireformat.KindString:
		return v.Str != ""
	case wireformat.KindInt:
		return v.Int != 0
	case wireformat.KindFloat:
		return v.Float != 0
	case wireformat.KindBool:
		return v.Bool
	case wireformat.KindList:
		return len(v.List) > 0
	case wireformat.KindNone:
		return false
	default:
		return true
	}
}

func splitStepPath(pathExpr string) (stepID string, path []string) {
	segments := strings.Split(pathExpr, ".")
	stepID = segments[0]
	for _, seg := range segments[1:] {
		if seg == "output" {
			continue
		}
		path = append(path, seg)
	}
	return stepID, path
}

func splitFilterCall(raw string) (name string, args []string) {
	raw = strings.TrimSpace(raw)
	open := strings.Index(raw, "(")
	if open == -1 {
		return raw, nil
	}
	name = strings.TrimSpace(raw[:open])
	inner := strings.TrimSuffix(raw[open+1:], ")")
	if strings.TrimSpace(inner) == "" {
		return name, nil
	}
	for _, a := range strings.Split(inner, ",") {
		args = append(args, strings.TrimSpace(a))
	}
	return name, args
}

func navigate(v wireformat.Value, path []string) (wireformat.Value, error) {
	current := v
	for _, segment := range path {
		if current.Kind != wireformat.KindRecord {
			return wireformat.Value{}, fmt.Errorf("cannot navigate path segment %q: value is not a record", segment)
		}
		next, ok := current.Record[segment]
		if !ok {
			return wireformat.Value{}, fmt.Errorf("record has no field %q", segment)
		}
		current = next
	}
	return current, nil
}

func renderValue(v wireformat.Value) string {
	switch v.Kind {
	case wireformat.KindString:
		return v.Str
	case wireformat.KindInt:
		return strconv.FormatInt(v.Int, 10)
	case wireformat.KindFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case wireformat.KindBool:
		return strconv.FormatBool(v.Bool)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// applyFilter evaluates one filter in the fixed set against rendered input.
// length/upper/lower/json are direct transforms; summarize takes a single
// numeric argument (max length) evaluated via expr so the argument may
// itself be a small arithmetic expression, matching the domain's own use
// of expr for condition-style evaluation.
func (e *TemplateEngine) applyFilter(stepID, name, input string, args []string) (string, error) {
	switch name {
	case "length":
		return strconv.Itoa(len([]rune(input))), nil
	case "upper":
		return strings.ToUpper(input), nil
	case "lower":
		return strings.ToLower(input), nil
	case "json":
		return strconv.Quote(input), nil
	case "summarize":
		limit := 200
		if len(args) > 0 {
			program, err := expr.Compile(args[0])
			if err != nil {
				return "", apperrors.NewStepTemplateError(stepID, fmt.Sprintf("summarize argument: %v", err))
			}
			out, err := expr.Run(program, nil)
			if err != nil {
				return "", apperrors.NewStepTemplateError(stepID, fmt.Sprintf("summarize argument: %v", err))
			}
			if n, ok := out.(int); ok {
				limit = n
			}
		}
		runes := []rune(input)
		if len(runes) <= limit {
			return input, nil
		}
		return string(runes[:limit]) + "...", nil
	default:
		return "", apperrors.NewStepTemplateError(stepID, fmt.Sprintf("unknown filter %q", name))
	}
}
