// Package wasm provides the sandboxed WebAssembly component runtime:
// compiling, describing, instantiating, and invoking components against a
// resolved set of import bindings.
package wasm

import (
	"encoding/json"
	"fmt"

	"github.com/pypes-dev/pypes/internal/application/services"
	"github.com/pypes-dev/pypes/internal/domain/blueprint"
	"github.com/tetratelabs/wazero"
)

// worldSectionName is the custom wasm section every component carries,
// holding its declared imports and exports as JSON. Reading it off the
// compiled module means describing a component never requires resolving
// and satisfying its imports first, the way calling an exported
// "describe" function would.
const worldSectionName = "pypes:world"

// worldWire is the JSON shape of the pypes:world custom section.
type worldWire struct {
	Imports         []string                 `json:"imports"`
	Exports         []string                 `json:"exports"`
	ImportFunctions map[string][]string      `json:"import_functions"`
	ExportFunctions map[string][]string      `json:"export_functions"`
	Signatures      map[string]signatureWire `json:"signatures"`
}

type signatureWire struct {
	Params map[string]string `json:"params"`
	Return string             `json:"return"`
}

// decodeWorld extracts and parses a compiled component's pypes:world
// custom section into its domain ComponentWorld.
func decodeWorld(compiled wazero.CompiledModule) (blueprint.ComponentWorld, error) {
	var raw []byte
	for _, section := range compiled.CustomSections() {
		if section.Name() == worldSectionName {
			raw = section.Data()
			break
		}
	}
	if raw == nil {
		return blueprint.ComponentWorld{}, fmt.Errorf("wasm: component carries no %q custom section", worldSectionName)
	}

	if err := services.ValidateWorldMetadata(raw); err != nil {
		return blueprint.ComponentWorld{}, fmt.Errorf("wasm: %w", err)
	}

	var wire worldWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return blueprint.ComponentWorld{}, fmt.Errorf("wasm: malformed %q section: %w", worldSectionName, err)
	}

	world := blueprint.ComponentWorld{
		ImportFunctions: wire.ImportFunctions,
		ExportFunctions: wire.ExportFunctions,
		Signatures:      make(map[string]blueprint.FunctionSignature, len(wire.Signatures)),
	}

	for _, name := range wire.Imports {
		iface, err := blueprint.ParseInterfaceName(name)
		if err != nil {
			return blueprint.ComponentWorld{}, fmt.Errorf("wasm: %w", err)
		}
		world.Imports = append(world.Imports, iface)
	}
	for _, name := range wire.Exports {
		iface, err := blueprint.ParseInterfaceName(name)
		if err != nil {
			return blueprint.ComponentWorld{}, fmt.Errorf("wasm: %w", err)
		}
		world.Exports = append(world.Exports, iface)
	}

	for key, sig := range wire.Signatures {
		params := make(map[string]blueprint.ParamKind, len(sig.Params))
		for name, kind := range sig.Params {
			params[name] = blueprint.ParamKind(kind)
		}
		world.Signatures[key] = blueprint.FunctionSignature{
			Params: params,
			Return: blueprint.ParamKind(sig.Return),
		}
	}

	return world, nil
}
