package wasm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pypes-dev/pypes/internal/application/ports"
	"github.com/pypes-dev/pypes/internal/domain/blueprint"
	"github.com/pypes-dev/pypes/wireformat"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// registerImports builds one wazero host module per resolved import
// binding on r, named after the binding's qualified interface so it
// resolves against exactly the module name the guest's own import section
// names. A host-bound import dispatches into the fixed wasi:* surface on
// ports.HostCapabilityProvider; a component-bound import forwards the call
// to another already-instantiated component, JSON-encoding the generic
// wireformat.Value argument map the same way a workflow step's value proxy
// call does.
func registerImports(ctx context.Context, r wazero.Runtime, world blueprint.ComponentWorld, bindings []ports.ImportBinding) error {
	for _, binding := range bindings {
		functions := world.ImportFunctions[binding.Interface.Qualified()]
		if len(functions) == 0 {
			continue
		}

		builder := r.NewHostModuleBuilder(binding.Interface.Qualified())
		for _, function := range functions {
			fn := function
			b := binding
			builder.NewFunctionBuilder().
				WithGoModuleFunction(api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
					dispatchImport(ctx, mod, stack, b, fn)
				}), []api.ValueType{api.ValueTypeI64}, []api.ValueType{api.ValueTypeI64}).
				Export(fn)
		}

		if _, err := builder.Instantiate(ctx); err != nil {
			return fmt.Errorf("wasm: registering import module %q: %w", binding.Interface.Qualified(), err)
		}
	}
	return nil
}

// dispatchImport handles a single guest-initiated import call. stack[0] is
// the packed ptr+len of the JSON-encoded request; it is overwritten with
// the packed ptr+len of the JSON-encoded response before returning, per
// the same calling convention hostWriteResponse used in the plugin model.
func dispatchImport(ctx context.Context, mod api.Module, stack []uint64, binding ports.ImportBinding, function string) {
	ptr, length := unpackPtrLen(stack[0])
	payload, err := readGuestMemory(ctx, mod, ptr, length)
	if err != nil {
		stack[0] = mustWriteError(ctx, mod, err)
		return
	}

	var response []byte
	if binding.Host != nil {
		response, err = dispatchHostImport(ctx, binding.Interface, function, binding.Host, payload)
	} else {
		response, err = dispatchComponentImport(ctx, binding.Interface, function, binding.Component, payload)
	}
	if err != nil {
		stack[0] = mustWriteError(ctx, mod, err)
		return
	}

	packed, err := writeGuestMemory(ctx, mod, response)
	if err != nil {
		stack[0] = mustWriteError(ctx, mod, err)
		return
	}
	stack[0] = packed
}

// dispatchHostImport routes a call against one of the four fixed wasi:*
// interfaces to its matching ports.HostCapabilityProvider method, using
// the method's own typed wire request/response structs directly as the
// JSON payload shape.
func dispatchHostImport(ctx context.Context, iface blueprint.InterfaceName, function string, host ports.HostCapabilityProvider, payload []byte) ([]byte, error) {
	switch iface.Qualified() {
	case "wasi:filesystem/types":
		switch function {
		case "read-file":
			var req wireformat.FilesystemReadRequestWire
			if err := json.Unmarshal(payload, &req); err != nil {
				return nil, err
			}
			return json.Marshal(host.FilesystemRead(ctx, req))
		case "write-file":
			var req wireformat.FilesystemWriteRequestWire
			if err := json.Unmarshal(payload, &req); err != nil {
				return nil, err
			}
			return json.Marshal(host.FilesystemWrite(ctx, req))
		}
	case "wasi:http/outgoing-handler":
		if function == "handle" {
			var req wireformat.HTTPRequestWire
			if err := json.Unmarshal(payload, &req); err != nil {
				return nil, err
			}
			return json.Marshal(host.HTTPOutgoing(ctx, req))
		}
	case "wasi:cli/environment":
		if function == "get-environment" {
			var req wireformat.EnvironmentReadRequestWire
			if err := json.Unmarshal(payload, &req); err != nil {
				return nil, err
			}
			return json.Marshal(host.EnvironmentRead(ctx, req))
		}
	case "wasi:random/random":
		if function == "get-random-bytes" {
			var req wireformat.RandomRequestWire
			if err := json.Unmarshal(payload, &req); err != nil {
				return nil, err
			}
			return json.Marshal(host.Random(ctx, req))
		}
	}
	return nil, fmt.Errorf("wasm: %s has no host function %q", iface.Qualified(), function)
}

// dispatchComponentImport forwards a guest's call on a component-wired
// import directly to the bound peer component's own invocation entry
// point, bridging the ptr+len ABI to the generic wireformat.Value
// argument map ComponentInstance.Invoke already speaks.
func dispatchComponentImport(ctx context.Context, iface blueprint.InterfaceName, function string, peer ports.ComponentInstance, payload []byte) ([]byte, error) {
	var args map[string]wireformat.Value
	if err := json.Unmarshal(payload, &args); err != nil {
		return nil, fmt.Errorf("wasm: malformed call to %s.%s: %w", iface.Qualified(), function, err)
	}

	result, err := peer.Invoke(ctx, iface, function, args)
	if err != nil {
		return nil, err
	}
	return json.Marshal(result)
}

func mustWriteError(ctx context.Context, mod api.Module, cause error) uint64 {
	data, _ := json.Marshal(wireformat.ErrorDetail{Message: cause.Error(), Type: "runtime"})
	packed, err := writeGuestMemory(ctx, mod, data)
	if err != nil {
		// The guest's own allocate() is failing; nothing left to signal with.
		return 0
	}
	return packed
}
