package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/pypes-dev/pypes/internal/domain/blueprint"
	"github.com/pypes-dev/pypes/internal/domain/capabilities"
	"github.com/pypes-dev/pypes/internal/domain/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSARIFFormatter_Format(t *testing.T) {
	rejection := &graph.Rejection{
		Reason:    graph.LethalTrifecta,
		Component: "summarizer",
		Detail:    "component summarizer accumulates UntrustedContentSource, SensitiveDataSource, Exfiltration",
		Edges: []graph.Edge{
			{
				Consumer:       "summarizer",
				ConsumerImport: blueprint.InterfaceName{Namespace: "wasi", Package: "http", Interface: "outgoing-handler"},
				Provider:       "host",
				ProviderExport: blueprint.InterfaceName{Namespace: "wasi", Package: "http", Interface: "outgoing-handler"},
				Classes:        capabilities.NewSet(capabilities.Exfiltration),
			},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, NewSARIFFormatter(&buf, "test").Format(rejection))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	assert.Contains(t, buf.String(), "LethalTrifecta")
	assert.Contains(t, buf.String(), "summarizer")
}
