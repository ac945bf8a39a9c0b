package wasm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pypes-dev/pypes/internal/domain/blueprint"
	"github.com/pypes-dev/pypes/wireformat"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// componentInstance is a single instantiated, invocable component. Unlike
// the plugin model's ephemeral per-call instances, a componentInstance is
// long-lived for the run's duration: its imports were bound once, at
// instantiation, against a fixed set of host and peer-component targets.
type componentInstance struct {
	name    string
	runtime wazero.Runtime // owns this instance's isolated import namespace
	module  api.Module
	world   blueprint.ComponentWorld
}

// Invoke calls one of the component's exported functions by its bare name,
// marshalling args to JSON, writing them into the guest's linear memory,
// and unmarshalling the packed ptr+len result back into a wireformat.Value.
// It has no knowledge of the declared signature; that check belongs to the
// value proxy, which calls Invoke only after it has already passed.
func (c *componentInstance) Invoke(ctx context.Context, iface blueprint.InterfaceName, function string, args map[string]wireformat.Value) (wireformat.Value, error) {
	fn := c.module.ExportedFunction(function)
	if fn == nil {
		return wireformat.Value{}, fmt.Errorf("wasm: component %s does not export function %q", c.name, function)
	}

	payload, err := json.Marshal(args)
	if err != nil {
		return wireformat.Value{}, fmt.Errorf("wasm: marshalling arguments to %s.%s: %w", iface.Qualified(), function, err)
	}

	packed, err := writeGuestMemory(ctx, c.module, payload)
	if err != nil {
		return wireformat.Value{}, fmt.Errorf("wasm: writing arguments for %s.%s: %w", iface.Qualified(), function, err)
	}

	results, err := fn.Call(ctx, packed)
	if err != nil {
		return wireformat.Value{}, fmt.Errorf("wasm: component %s trapped in %s: %w", c.name, function, err)
	}
	if len(results) == 0 {
		return wireformat.Value{}, fmt.Errorf("wasm: %s.%s returned no result", c.name, function)
	}

	ptr, length := unpackPtrLen(results[0])
	if ptr == 0 {
		return wireformat.Value{}, fmt.Errorf("wasm: %s.%s returned a null result", c.name, function)
	}

	data, err := readGuestMemory(ctx, c.module, ptr, length)
	if err != nil {
		return wireformat.Value{}, fmt.Errorf("wasm: reading result of %s.%s: %w", c.name, function, err)
	}

	var result wireformat.Value
	if err := json.Unmarshal(data, &result); err != nil {
		return wireformat.Value{}, fmt.Errorf("wasm: unmarshalling result of %s.%s: %w", c.name, function, err)
	}
	return result, nil
}

// Close tears down this instance's entire isolated runtime, which owns
// both the guest module and every per-instance host import module
// registered alongside it.
func (c *componentInstance) Close(ctx context.Context) error {
	return c.runtime.Close(ctx)
}
