package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pypes-dev/pypes/internal/application/ports"
	"github.com/pypes-dev/pypes/internal/domain/blueprint"
	"github.com/pypes-dev/pypes/wireformat"
)

type stubHostProvider struct{}

func (stubHostProvider) Advertises() []blueprint.InterfaceName { return nil }
func (stubHostProvider) FilesystemRead(ctx context.Context, req wireformat.FilesystemReadRequestWire) wireformat.FilesystemReadResponseWire {
	return wireformat.FilesystemReadResponseWire{}
}
func (stubHostProvider) FilesystemWrite(ctx context.Context, req wireformat.FilesystemWriteRequestWire) wireformat.FilesystemWriteResponseWire {
	return wireformat.FilesystemWriteResponseWire{}
}
func (stubHostProvider) HTTPOutgoing(ctx context.Context, req wireformat.HTTPRequestWire) wireformat.HTTPResponseWire {
	return wireformat.HTTPResponseWire{}
}
func (stubHostProvider) EnvironmentRead(ctx context.Context, req wireformat.EnvironmentReadRequestWire) wireformat.EnvironmentReadResponseWire {
	return wireformat.EnvironmentReadResponseWire{}
}
func (stubHostProvider) Random(ctx context.Context, req wireformat.RandomRequestWire) wireformat.RandomResponseWire {
	return wireformat.RandomResponseWire{}
}

type mockComponentLoader struct{ mock.Mock }

func (m *mockComponentLoader) Load(ctx context.Context, ref blueprint.ComponentRef) (*ports.ComponentArtifact, error) {
	args := m.Called(ctx, ref)
	artifact, _ := args.Get(0).(*ports.ComponentArtifact)
	return artifact, args.Error(1)
}

type mockRuntimeFactory struct{ mock.Mock }

func (m *mockRuntimeFactory) NewRuntime(ctx context.Context) (ports.ComponentRuntime, error) {
	args := m.Called(ctx)
	runtime, _ := args.Get(0).(ports.ComponentRuntime)
	return runtime, args.Error(1)
}

type mockComponentRuntime struct{ mock.Mock }

func (m *mockComponentRuntime) Instantiate(ctx context.Context, artifact *ports.ComponentArtifact, bindings []ports.ImportBinding) (ports.ComponentInstance, error) {
	args := m.Called(ctx, artifact, bindings)
	instance, _ := args.Get(0).(ports.ComponentInstance)
	return instance, args.Error(1)
}

func (m *mockComponentRuntime) Close(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func twoComponentBlueprint(t *testing.T) *blueprint.Blueprint {
	t.Helper()
	bp, err := blueprint.New(
		map[string]string{"fetcher": "./fetcher.wasm", "summarizer": "./summarizer.wasm"},
		map[string]string{
			"fetcher.wasi:cli/environment":     "host.wasi:cli/environment",
			"summarizer.app:fetch/source":      "fetcher.app:fetch/export",
		},
		[]blueprint.RawStep{
			{ID: "fetch", Component: "fetcher", Function: "app:fetch/export.run"},
			{ID: "summarize", Component: "summarizer", Function: "app:summarize/export.run", Input: "{{ fetch.output }}"},
		},
	)
	require.NoError(t, err)
	return bp
}

func Test_Linker_Link_InstantiatesInDependencyOrder(t *testing.T) {
	bp := twoComponentBlueprint(t)

	loader := new(mockComponentLoader)
	runtimeFactory := new(mockRuntimeFactory)
	runtime := new(mockComponentRuntime)

	fetcherArtifact := &ports.ComponentArtifact{Name: "fetcher"}
	summarizerArtifact := &ports.ComponentArtifact{Name: "summarizer"}
	fetcherInstance := new(mockComponentInstance)
	summarizerInstance := new(mockComponentInstance)

	loader.On("Load", mock.Anything, bp.Components["fetcher"]).Return(fetcherArtifact, nil)
	loader.On("Load", mock.Anything, bp.Components["summarizer"]).Return(summarizerArtifact, nil)
	runtimeFactory.On("NewRuntime", mock.Anything).Return(runtime, nil)
	runtime.On("Instantiate", mock.Anything, fetcherArtifact, mock.Anything).Return(fetcherInstance, nil)
	runtime.On("Instantiate", mock.Anything, summarizerArtifact, mock.Anything).Return(summarizerInstance, nil)

	linker := NewLinker(runtimeFactory, stubHostProvider{}, loader)
	linked, err := linker.Link(context.Background(), bp)

	require.NoError(t, err)
	assert.Len(t, linked, 2)
	assert.Same(t, fetcherInstance, linked["fetcher"].Instance)
	assert.Same(t, summarizerInstance, linked["summarizer"].Instance)
	runtime.AssertExpectations(t)
}

func Test_Linker_Link_MissingArtifactIsArtifactNotFound(t *testing.T) {
	bp := twoComponentBlueprint(t)

	loader := new(mockComponentLoader)
	runtimeFactory := new(mockRuntimeFactory)
	runtime := new(mockComponentRuntime)

	loader.On("Load", mock.Anything, mock.Anything).Return(nil, assertAnError())
	runtimeFactory.On("NewRuntime", mock.Anything).Return(runtime, nil)

	linker := NewLinker(runtimeFactory, stubHostProvider{}, loader)
	_, err := linker.Link(context.Background(), bp)

	require.Error(t, err)
}

func assertAnError() error {
	return context.DeadlineExceeded
}
