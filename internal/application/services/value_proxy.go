// Package services implements the application use cases that sit between
// the domain model and infrastructure: the linker, the workflow executor,
// the value proxy, and the template engine.
package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	apperrors "github.com/pypes-dev/pypes/internal/application/errors"
	"github.com/pypes-dev/pypes/internal/application/ports"
	"github.com/pypes-dev/pypes/internal/domain/blueprint"
	"github.com/pypes-dev/pypes/wireformat"
)

// worldMetadataSchema is the fixed meta-schema every component's
// pypes:world custom section must validate against before the loader
// trusts its declared imports, exports, and signatures.
const worldMetadataSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["imports", "exports"],
	"properties": {
		"imports": {"type": "array", "items": {"type": "string"}},
		"exports": {"type": "array", "items": {"type": "string"}},
		"import_functions": {
			"type": "object",
			"additionalProperties": {"type": "array", "items": {"type": "string"}}
		},
		"export_functions": {
			"type": "object",
			"additionalProperties": {"type": "array", "items": {"type": "string"}}
		},
		"signatures": {
			"type": "object",
			"additionalProperties": {
				"type": "object",
				"required": ["params", "return"],
				"properties": {
					"params": {"type": "object", "additionalProperties": {"type": "string"}},
					"return": {"type": "string"}
				}
			}
		}
	}
}`

var compiledWorldSchema = mustCompileWorldSchema()

func mustCompileWorldSchema() *jsonschema.Schema {
	schema, err := jsonschema.CompileString("pypes://world-metadata.schema.json", worldMetadataSchema)
	if err != nil {
		panic(fmt.Sprintf("services: world metadata schema does not compile: %v", err))
	}
	return schema
}

// ValidateWorldMetadata checks a component's raw pypes:world custom section
// against the fixed meta-schema before the loader unmarshals it into a
// blueprint.ComponentWorld. A component whose declared world doesn't match
// the expected shape is rejected here rather than surfacing as a confusing
// zero-value signature lookup later in Invoke.
func ValidateWorldMetadata(raw []byte) error {
	var document interface{}
	if err := json.Unmarshal(raw, &document); err != nil {
		return fmt.Errorf("decoding world metadata: %w", err)
	}
	if err := compiledWorldSchema.Validate(document); err != nil {
		return fmt.Errorf("world metadata failed schema validation: %w", err)
	}
	return nil
}

// ValueProxy is the one checkpoint every inter-component value crosses: it
// type-checks arguments against the target function's declared signature,
// enforces a payload ceiling on both legs of the call, and refuses to
// serialize a capability-carrying value. It never has access to the
// components directly; it is handed a ComponentInstance to call through.
type ValueProxy struct {
	maxPayloadBytes int
}

// NewValueProxy returns a proxy enforcing the given per-call payload
// ceiling (spec §4.8's `max_payload_size`).
func NewValueProxy(maxPayloadBytes int) *ValueProxy {
	return &ValueProxy{maxPayloadBytes: maxPayloadBytes}
}

// Invoke looks up target's declared signature in world, coerces args
// against it, enforces the payload ceiling on the way in, calls through
// instance, then re-validates and re-measures the return value. stepID is
// only used to annotate a StepInvocationFailed error; pass "" outside a
// workflow step (e.g. --entrypoint invocation).
//
// No wireformat.Value kind represents a capability handle, so refusing
// capability-carrying values (spec §4.8) falls out of the tagged-value
// representation itself rather than needing an explicit check here.
func (p *ValueProxy) Invoke(ctx context.Context, component, stepID string, world blueprint.ComponentWorld, target blueprint.QualifiedFunction, args map[string]wireformat.Value, instance ports.ComponentInstance) (wireformat.Value, error) {
	sig, ok := world.Signature(target.Interface, target.Function)
	if !ok {
		return wireformat.Value{}, apperrors.NewTypeMismatch(component, target.Function, "no declared signature for this function")
	}

	if err := p.checkArgs(component, target.Function, sig, args); err != nil {
		return wireformat.Value{}, err
	}

	result, err := instance.Invoke(ctx, target.Interface, target.Function, args)
	if err != nil {
		return wireformat.Value{}, apperrors.NewStepInvocationFailed(component, stepID, err)
	}

	if err := p.checkReturn(component, target.Function, sig, result); err != nil {
		return wireformat.Value{}, err
	}

	return result, nil
}

func (p *ValueProxy) checkArgs(component, function string, sig blueprint.FunctionSignature, args map[string]wireformat.Value) error {
	for name, value := range args {
		expected, declared := sig.Params[name]
		if !declared {
			return apperrors.NewTypeMismatch(component, function, fmt.Sprintf("unexpected argument %q", name))
		}
		if err := p.checkValue(component, function, expected, value); err != nil {
			return err
		}
	}
	for name := range sig.Params {
		if _, present := args[name]; !present {
			return apperrors.NewTypeMismatch(component, function, fmt.Sprintf("missing required argument %q", name))
		}
	}
	return nil
}

func (p *ValueProxy) checkReturn(component, function string, sig blueprint.FunctionSignature, value wireformat.Value) error {
	return p.checkValue(component, function, sig.Return, value)
}

func (p *ValueProxy) checkValue(component, function string, expected blueprint.ParamKind, value wireformat.Value) error {
	if size := value.ApproximateSize(); size > p.maxPayloadBytes {
		return apperrors.NewPayloadTooLarge(component, size, p.maxPayloadBytes)
	}

	if expected == blueprint.ParamAny {
		return nil
	}

	if !kindMatches(expected, value.Kind) {
		return apperrors.NewTypeMismatch(component, function, fmt.Sprintf("expected %s, got %s", expected, value.Kind))
	}

	return nil
}

func kindMatches(expected blueprint.ParamKind, got wireformat.ValueKind) bool {
	switch expected {
	case blueprint.ParamString:
		return got == wireformat.KindString
	case blueprint.ParamInt:
		return got == wireformat.KindInt
	case blueprint.ParamFloat:
		return got == wireformat.KindFloat
	case blueprint.ParamBool:
		return got == wireformat.KindBool
	case blueprint.ParamList:
		return got == wireformat.KindList
	case blueprint.ParamRecord:
		return got == wireformat.KindRecord
	case blueprint.ParamVariant:
		return got == wireformat.KindVariant
	default:
		return false
	}
}
