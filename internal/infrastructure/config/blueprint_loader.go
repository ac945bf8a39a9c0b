// Package config loads the on-disk TOML blueprint document and the
// process-wide system configuration into the typed shapes the domain and
// application layers consume. Decoding and file I/O live here so the
// domain's blueprint package stays free of any serialisation dependency.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/pypes-dev/pypes/internal/domain/blueprint"
)

// blueprintDocument mirrors the three top-level TOML sections. Workflow
// steps are decoded into a raw map per step so that arbitrary named
// keyword fields survive alongside the fixed ones, then split apart in
// toRawSteps.
type blueprintDocument struct {
	Components map[string]string `toml:"components"`
	Wiring     map[string]string `toml:"wiring"`
	Workflow   struct {
		Steps []map[string]any `toml:"steps"`
	} `toml:"workflow"`
}

// reservedStepFields are the fixed fields of a workflow step; anything
// else on a step's table is forwarded as a named argument.
var reservedStepFields = map[string]struct{}{
	"id": {}, "component": {}, "function": {}, "input": {}, "condition": {}, "on_error": {},
}

// LoadBlueprint reads and parses a TOML blueprint document at path into a
// validated Blueprint. File I/O errors and decode failures alike surface
// as a blueprint.ParseError so the CLI can map them uniformly to exit
// code 3.
func LoadBlueprint(path string) (*blueprint.Blueprint, error) {
	dir := filepath.Dir(path)
	base := filepath.Base(path)

	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, blueprint.NewParseError(blueprint.MalformedConfig, "opening blueprint directory %q: %v", dir, err)
	}
	defer func() { _ = root.Close() }()

	file, err := root.Open(base)
	if err != nil {
		return nil, blueprint.NewParseError(blueprint.MalformedConfig, "opening blueprint %q: %v", path, err)
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, blueprint.NewParseError(blueprint.MalformedConfig, "reading blueprint %q: %v", path, err)
	}

	return ParseBlueprint(data)
}

// ParseBlueprint decodes a TOML blueprint document already held in memory.
func ParseBlueprint(data []byte) (*blueprint.Blueprint, error) {
	var doc blueprintDocument
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, blueprint.NewParseError(blueprint.MalformedConfig, "decoding blueprint TOML: %v", err)
	}

	rawSteps, err := toRawSteps(doc.Workflow.Steps)
	if err != nil {
		return nil, err
	}

	return blueprint.New(doc.Components, doc.Wiring, rawSteps)
}

func toRawSteps(tables []map[string]any) ([]blueprint.RawStep, error) {
	steps := make([]blueprint.RawStep, 0, len(tables))
	for i, table := range tables {
		step, err := toRawStep(table)
		if err != nil {
			return nil, blueprint.NewParseError(blueprint.MalformedConfig, "workflow step %d: %v", i, err)
		}
		steps = append(steps, step)
	}
	return steps, nil
}

func toRawStep(table map[string]any) (blueprint.RawStep, error) {
	id, err := stringField(table, "id", true)
	if err != nil {
		return blueprint.RawStep{}, err
	}
	component, err := stringField(table, "component", true)
	if err != nil {
		return blueprint.RawStep{}, err
	}
	function, err := stringField(table, "function", true)
	if err != nil {
		return blueprint.RawStep{}, err
	}
	input, err := stringField(table, "input", false)
	if err != nil {
		return blueprint.RawStep{}, err
	}
	condition, err := stringField(table, "condition", false)
	if err != nil {
		return blueprint.RawStep{}, err
	}
	onError, err := stringField(table, "on_error", false)
	if err != nil {
		return blueprint.RawStep{}, err
	}

	args := make(map[string]string)
	for key, value := range table {
		if _, reserved := reservedStepFields[key]; reserved {
			continue
		}
		str, ok := value.(string)
		if !ok {
			return blueprint.RawStep{}, fmt.Errorf("named argument %q must be a string, got %T", key, value)
		}
		args[key] = str
	}

	return blueprint.RawStep{
		ID:        id,
		Component: component,
		Function:  function,
		Input:     input,
		Condition: condition,
		OnError:   onError,
		Args:      args,
	}, nil
}

func stringField(table map[string]any, key string, required bool) (string, error) {
	value, ok := table[key]
	if !ok {
		if required {
			return "", fmt.Errorf("missing required field %q", key)
		}
		return "", nil
	}
	str, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("field %q must be a string, got %T", key, value)
	}
	return str, nil
}
