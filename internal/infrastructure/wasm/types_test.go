package wasm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero"
)

// encodeCustomSection builds the raw bytes of one wasm custom section
// (section id 0) carrying name and data, using single-byte LEB128 lengths
// since test fixtures never exceed 127 bytes.
func encodeCustomSection(name string, data []byte) []byte {
	content := make([]byte, 0, 1+len(name)+len(data))
	content = append(content, byte(len(name)))
	content = append(content, name...)
	content = append(content, data...)

	section := make([]byte, 0, 2+len(content))
	section = append(section, 0x00, byte(len(content)))
	section = append(section, content...)
	return section
}

// minimalModule returns a syntactically valid, empty wasm module carrying
// the given custom sections. It declares no imports and no functions, so
// it compiles without ever needing to be instantiated.
func minimalModule(sections ...[]byte) []byte {
	module := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	for _, s := range sections {
		module = append(module, s...)
	}
	return module
}

func compileFixture(t *testing.T, bytes []byte) wazero.CompiledModule {
	t.Helper()
	ctx := context.Background()
	runtime := wazero.NewRuntime(ctx)
	t.Cleanup(func() { _ = runtime.Close(ctx) })

	compiled, err := runtime.CompileModule(ctx, bytes)
	require.NoError(t, err)
	return compiled
}

func Test_decodeWorld_ParsesCustomSection(t *testing.T) {
	worldJSON := []byte(`{
		"imports": ["wasi:cli/environment"],
		"exports": ["app:fetch/export"],
		"import_functions": {"wasi:cli/environment": ["get-environment"]},
		"export_functions": {"app:fetch/export": ["run"]},
		"signatures": {"app:fetch/export#run": {"params": {}, "return": "string"}}
	}`)
	compiled := compileFixture(t, minimalModule(encodeCustomSection(worldSectionName, worldJSON)))

	world, err := decodeWorld(compiled)
	require.NoError(t, err)

	require.Len(t, world.Imports, 1)
	assert.Equal(t, "wasi:cli/environment", world.Imports[0].Qualified())
	require.Len(t, world.Exports, 1)
	assert.Equal(t, "app:fetch/export", world.Exports[0].Qualified())
	assert.Equal(t, []string{"get-environment"}, world.ImportFunctions["wasi:cli/environment"])

	sig, ok := world.Signature(world.Exports[0], "run")
	require.True(t, ok)
	assert.Empty(t, sig.Params)
}

func Test_decodeWorld_MissingSection(t *testing.T) {
	compiled := compileFixture(t, minimalModule())

	_, err := decodeWorld(compiled)
	assert.Error(t, err)
}

func Test_decodeWorld_MalformedJSON(t *testing.T) {
	compiled := compileFixture(t, minimalModule(encodeCustomSection(worldSectionName, []byte("not json"))))

	_, err := decodeWorld(compiled)
	assert.Error(t, err)
}

func Test_decodeWorld_FailsSchemaValidationWhenRequiredFieldMissing(t *testing.T) {
	worldJSON := []byte(`{"exports": ["app:fetch/export"]}`)
	compiled := compileFixture(t, minimalModule(encodeCustomSection(worldSectionName, worldJSON)))

	_, err := decodeWorld(compiled)
	assert.Error(t, err)
}
