package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_parseLocation_ValidRemoteLocation(t *testing.T) {
	host, name, version, err := parseLocation("remote://registry.pypes.dev/calendar-reader@1.4.0")
	require.NoError(t, err)
	assert.Equal(t, "registry.pypes.dev", host)
	assert.Equal(t, "calendar-reader", name)
	assert.Equal(t, "1.4.0", version)
}

func Test_parseLocation_RejectsLocalLocation(t *testing.T) {
	_, _, _, err := parseLocation("./components/calendar_reader.wasm")
	require.Error(t, err)
}

func Test_parseLocation_RejectsMissingVersion(t *testing.T) {
	_, _, _, err := parseLocation("remote://registry.pypes.dev/calendar-reader")
	require.Error(t, err)
}

func Test_parseLocation_RejectsMissingName(t *testing.T) {
	_, _, _, err := parseLocation("remote://registry.pypes.dev/")
	require.Error(t, err)
}

func Test_findComponentLayer_LocatesWasmFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manifest.json"), []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "component.wasm"), []byte("\x00asm"), 0o644))

	path, err := findComponentLayer(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "component.wasm"), path)
}

func Test_findComponentLayer_MissingWasmFileIsAnError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manifest.json"), []byte("{}"), 0o644))

	_, err := findComponentLayer(dir)
	require.Error(t, err)
}

func Test_NewFetcher_StoresCacheDirAndAuth(t *testing.T) {
	f := NewFetcher("/tmp/pypes-cache", nil)
	assert.Equal(t, "/tmp/pypes-cache", f.cacheDir)
	assert.Nil(t, f.auth)
}
