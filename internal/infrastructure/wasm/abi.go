package wasm

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero/api"
)

// packPtrLen and unpackPtrLen implement the packed-uint64 calling
// convention shared by every exported and host function crossing the
// guest/host boundary: the high 32 bits are a linear-memory pointer, the
// low 32 bits its byte length.
func packPtrLen(ptr, length uint32) uint64 {
	return (uint64(ptr) << 32) | uint64(length)
}

func unpackPtrLen(packed uint64) (ptr, length uint32) {
	ptr = uint32(packed >> 32)
	length = uint32(packed)
	return ptr, length
}

// readGuestMemory reads length bytes at ptr out of the instance's linear
// memory and deallocates the block, mirroring the allocate/deallocate
// convention every component exports.
func readGuestMemory(ctx context.Context, mod api.Module, ptr, length uint32) ([]byte, error) {
	defer func() {
		if dealloc := mod.ExportedFunction("deallocate"); dealloc != nil {
			_, _ = dealloc.Call(ctx, uint64(ptr), uint64(length))
		}
	}()

	data, ok := mod.Memory().Read(ptr, length)
	if !ok {
		return nil, fmt.Errorf("wasm: cannot read %d bytes at offset %d from guest memory", length, ptr)
	}
	// Read returns a view into the guest's memory; copy it out before the
	// deferred deallocate can reuse the block.
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// writeGuestMemory allocates a block in the instance's linear memory via
// its exported allocate function and copies data into it, returning the
// packed ptr+len result the caller passes back across the boundary.
func writeGuestMemory(ctx context.Context, mod api.Module, data []byte) (uint64, error) {
	allocate := mod.ExportedFunction("allocate")
	if allocate == nil {
		return 0, fmt.Errorf("wasm: guest module %s does not export allocate()", mod.Name())
	}

	results, err := allocate.Call(ctx, uint64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("wasm: allocate(%d) failed: %w", len(data), err)
	}
	if len(results) == 0 || results[0] == 0 {
		return 0, fmt.Errorf("wasm: allocate(%d) returned a null pointer", len(data))
	}
	ptr := uint32(results[0])

	if !mod.Memory().Write(ptr, data) {
		return 0, fmt.Errorf("wasm: failed to write %d bytes to guest memory at offset %d", len(data), ptr)
	}
	return packPtrLen(ptr, uint32(len(data))), nil
}
