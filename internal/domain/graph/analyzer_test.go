package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pypes-dev/pypes/internal/domain/blueprint"
	"github.com/pypes-dev/pypes/internal/domain/capabilities"
)

func iface(t *testing.T, raw string) blueprint.InterfaceName {
	t.Helper()
	n, err := blueprint.ParseInterfaceName(raw)
	require.NoError(t, err)
	return n
}

func hostSurface(t *testing.T) []blueprint.InterfaceName {
	return []blueprint.InterfaceName{
		iface(t, "wasi:filesystem/types"),
		iface(t, "wasi:http/outgoing-handler"),
		iface(t, "wasi:cli/environment"),
		iface(t, "wasi:random/random"),
	}
}

func Test_Analyze_EmptyImportSetAlwaysAccepted(t *testing.T) {
	components := map[string]string{"pure": "./pure.wasm"}
	bp, err := blueprint.New(components, nil, nil)
	require.NoError(t, err)

	worlds := map[string]blueprint.ComponentWorld{
		"pure": {},
	}

	a := NewAnalyzer(capabilities.NewTaxonomy())
	accepted, rej := a.Analyze(bp, worlds, hostSurface(t), false)
	require.Nil(t, rej)
	require.NotNil(t, accepted)
	assert.Empty(t, accepted.Graph.Labels["pure"])
}

func Test_Analyze_HTTPOnlyAccepted(t *testing.T) {
	components := map[string]string{"web_searcher": "./web_searcher.wasm"}
	wiring := map[string]string{
		"web_searcher.wasi:http/outgoing-handler": "host.wasi:http/outgoing-handler",
	}
	bp, err := blueprint.New(components, wiring, nil)
	require.NoError(t, err)

	worlds := map[string]blueprint.ComponentWorld{
		"web_searcher": {Imports: []blueprint.InterfaceName{iface(t, "wasi:http/outgoing-handler")}},
	}

	a := NewAnalyzer(capabilities.NewTaxonomy())
	accepted, rej := a.Analyze(bp, worlds, hostSurface(t), false)
	require.Nil(t, rej)
	require.NotNil(t, accepted)

	label := accepted.Graph.Labels["web_searcher"]
	assert.True(t, label.Contains(capabilities.Exfiltration))
	assert.True(t, label.Contains(capabilities.UntrustedContentSource))
	assert.False(t, label.Contains(capabilities.SensitiveDataSource))
}

func Test_Analyze_LethalTrifectaRejected(t *testing.T) {
	components := map[string]string{"leaky_agent": "./leaky_agent.wasm"}
	wiring := map[string]string{
		"leaky_agent.wasi:filesystem/types":      "host.wasi:filesystem/types",
		"leaky_agent.wasi:http/outgoing-handler": "host.wasi:http/outgoing-handler",
	}
	bp, err := blueprint.New(components, wiring, nil)
	require.NoError(t, err)

	worlds := map[string]blueprint.ComponentWorld{
		"leaky_agent": {Imports: []blueprint.InterfaceName{
			iface(t, "wasi:filesystem/types"),
			iface(t, "wasi:http/outgoing-handler"),
		}},
	}

	a := NewAnalyzer(capabilities.NewTaxonomy())
	accepted, rej := a.Analyze(bp, worlds, hostSurface(t), false)
	require.Nil(t, accepted)
	require.NotNil(t, rej)
	assert.Equal(t, LethalTrifecta, rej.Reason)
	assert.Equal(t, "leaky_agent", rej.Component)
}

func Test_Analyze_DeadlyDuoRejected(t *testing.T) {
	components := map[string]string{"writer_agent": "./writer_agent.wasm"}
	wiring := map[string]string{
		"writer_agent.wasi:http/outgoing-handler": "host.wasi:http/outgoing-handler",
		"writer_agent.wasi:filesystem/types":      "host.wasi:filesystem/types",
	}
	bp, err := blueprint.New(components, wiring, nil)
	require.NoError(t, err)

	worlds := map[string]blueprint.ComponentWorld{
		"writer_agent": {
			Imports: []blueprint.InterfaceName{
				iface(t, "wasi:http/outgoing-handler"),
				iface(t, "wasi:filesystem/types"),
			},
			ImportFunctions: map[string][]string{
				"wasi:filesystem/types": {"write-via-stream"},
			},
		},
	}

	a := NewAnalyzer(capabilities.NewTaxonomy())
	_, rej := a.Analyze(bp, worlds, hostSurface(t), false)
	require.NotNil(t, rej)
	assert.Contains(t, []RejectionReason{LethalTrifecta, DeadlyDuo}, rej.Reason)
}

func Test_Analyze_AllowUnsafeBypassesPolicyOnly(t *testing.T) {
	components := map[string]string{"leaky_agent": "./leaky_agent.wasm"}
	wiring := map[string]string{
		"leaky_agent.wasi:filesystem/types":      "host.wasi:filesystem/types",
		"leaky_agent.wasi:http/outgoing-handler": "host.wasi:http/outgoing-handler",
	}
	bp, err := blueprint.New(components, wiring, nil)
	require.NoError(t, err)

	worlds := map[string]blueprint.ComponentWorld{
		"leaky_agent": {Imports: []blueprint.InterfaceName{
			iface(t, "wasi:filesystem/types"),
			iface(t, "wasi:http/outgoing-handler"),
		}},
	}

	a := NewAnalyzer(capabilities.NewTaxonomy())
	accepted, rej := a.Analyze(bp, worlds, hostSurface(t), true)
	require.Nil(t, rej)
	require.NotNil(t, accepted)
	assert.True(t, accepted.PolicyChecksSkipped)
}

func Test_Analyze_UnboundImportRejected(t *testing.T) {
	components := map[string]string{"calendar_reader": "./calendar_reader.wasm"}
	bp, err := blueprint.New(components, nil, nil)
	require.NoError(t, err)

	worlds := map[string]blueprint.ComponentWorld{
		"calendar_reader": {Imports: []blueprint.InterfaceName{iface(t, "wasi:filesystem/types")}},
	}

	a := NewAnalyzer(capabilities.NewTaxonomy())
	_, rej := a.Analyze(bp, worlds, hostSurface(t), false)
	require.NotNil(t, rej)
	assert.Equal(t, UnboundImport, rej.Reason)
	assert.Equal(t, "calendar_reader", rej.Component)
}

func Test_Analyze_UnsatisfiedExportFromComponentProviderRejected(t *testing.T) {
	components := map[string]string{
		"consumer": "./consumer.wasm",
		"provider": "./provider.wasm",
	}
	wiring := map[string]string{
		"consumer.app:x/y": "provider.app:x/y",
	}
	bp, err := blueprint.New(components, wiring, nil)
	require.NoError(t, err)

	worlds := map[string]blueprint.ComponentWorld{
		"consumer": {Imports: []blueprint.InterfaceName{iface(t, "app:x/y")}},
		"provider": {}, // does not export app:x/y
	}

	a := NewAnalyzer(capabilities.NewTaxonomy())
	_, rej := a.Analyze(bp, worlds, hostSurface(t), false)
	require.NotNil(t, rej)
	assert.Equal(t, UnsatisfiedExport, rej.Reason)
}
