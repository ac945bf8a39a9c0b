package container

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	c, err := New(context.Background(), Options{})
	require.NoError(t, err)

	assert.NotNil(t, c.Runner())
	assert.NotNil(t, c.SystemConfig())
	assert.NotNil(t, c.Redactor())
	assert.NotNil(t, c.SensitiveValueProvider())
	assert.NotNil(t, c.Analyzer())
	assert.NotNil(t, c.Logger())
}

func TestNew_MalformedSystemConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-parse.yaml")
	require.NoError(t, os.WriteFile(path, []byte("filesystem_root: [not a string"), 0o600))

	_, err := New(context.Background(), Options{SystemConfigPath: path})
	assert.Error(t, err)
}
