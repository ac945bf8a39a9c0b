package registry

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDigester_DigestBytes(t *testing.T) {
	d := NewDigester()

	got := d.DigestBytes([]byte("hello world"))
	assert.Equal(t, "sha256:b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9", got)
}

func TestDigester_DigestBytesEmpty(t *testing.T) {
	d := NewDigester()

	got := d.DigestBytes(nil)
	assert.Equal(t, "sha256:e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", got)
}

func TestDigester_DigestFile(t *testing.T) {
	d := NewDigester()
	path := filepath.Join(t.TempDir(), "artifact.wasm")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o600))

	got, err := d.DigestFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "sha256:b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9", got)
}

func TestDigester_DigestFileMissing(t *testing.T) {
	d := NewDigester()

	_, err := d.DigestFile(context.Background(), filepath.Join(t.TempDir(), "missing.wasm"))
	assert.Error(t, err)
}
