package capabilities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Taxonomy_Classify_HTTP(t *testing.T) {
	tax := NewTaxonomy()
	classes := tax.Classify("wasi:http/outgoing-handler", "handle")
	assert.True(t, classes.Contains(Exfiltration))
	assert.True(t, classes.Contains(UntrustedContentSource))
	assert.False(t, classes.Contains(SensitiveDataSource))
}

func Test_Taxonomy_Classify_Environment(t *testing.T) {
	tax := NewTaxonomy()
	classes := tax.Classify("wasi:cli/environment", "get-environment")
	assert.True(t, classes.Contains(SensitiveDataSource))
}

func Test_Taxonomy_Classify_Random(t *testing.T) {
	tax := NewTaxonomy()
	classes := tax.Classify("wasi:random/random", "get-random-bytes")
	assert.True(t, classes.Contains(PureComputation))
}

func Test_Taxonomy_Classify_FilesystemRead(t *testing.T) {
	tax := NewTaxonomy()
	classes := tax.Classify("wasi:filesystem/types", "read-via-stream")
	assert.True(t, classes.Contains(SensitiveDataSource))
	assert.False(t, classes.Contains(DestructiveAction))
}

func Test_Taxonomy_Classify_FilesystemWrite(t *testing.T) {
	tax := NewTaxonomy()
	classes := tax.Classify("wasi:filesystem/types", "write-via-stream")
	assert.True(t, classes.Contains(SensitiveDataSource))
	assert.True(t, classes.Contains(DestructiveAction))
}

func Test_Taxonomy_Classify_FilesystemRemove(t *testing.T) {
	tax := NewTaxonomy()
	classes := tax.Classify("wasi:filesystem/types", "remove-directory-at")
	assert.True(t, classes.Contains(DestructiveAction))
}

func Test_Taxonomy_Classify_UnknownInterface_DefaultsPure(t *testing.T) {
	tax := NewTaxonomy()
	classes := tax.Classify("app:matcher/classify", "match")
	assert.True(t, classes.Contains(PureComputation))
	assert.Equal(t, 1, len(classes))
}

func Test_Taxonomy_Classify_UnknownReservedPrefix_Conservative(t *testing.T) {
	tax := NewTaxonomy()
	classes := tax.Classify("wasi:sockets/tcp", "connect")
	assert.True(t, classes.Contains(UntrustedContentSource))
	assert.True(t, classes.Contains(SensitiveDataSource))
	assert.True(t, classes.Contains(Exfiltration))
	assert.True(t, classes.Contains(DestructiveAction))
}

func Test_Taxonomy_IsHostInterface(t *testing.T) {
	tax := NewTaxonomy()
	assert.True(t, tax.IsHostInterface("wasi:filesystem/types"))
	assert.False(t, tax.IsHostInterface("app:matcher/classify"))
}
