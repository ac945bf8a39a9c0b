package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pypes-dev/pypes/internal/domain/blueprint"
	"github.com/pypes-dev/pypes/wireformat"
)

// mockComponentInstance is a mock implementation of ports.ComponentInstance.
type mockComponentInstance struct {
	mock.Mock
}

func (m *mockComponentInstance) Invoke(ctx context.Context, iface blueprint.InterfaceName, function string, args map[string]wireformat.Value) (wireformat.Value, error) {
	callArgs := m.Called(ctx, iface, function, args)
	return callArgs.Get(0).(wireformat.Value), callArgs.Error(1)
}

func (m *mockComponentInstance) Close(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func classifyWorld(t *testing.T) (blueprint.InterfaceName, blueprint.ComponentWorld) {
	t.Helper()
	iface, err := blueprint.ParseInterfaceName("app:matcher/classify")
	require.NoError(t, err)

	world := blueprint.ComponentWorld{
		Exports:         []blueprint.InterfaceName{iface},
		ExportFunctions: map[string][]string{"app:matcher/classify": {"run"}},
		Signatures: map[string]blueprint.FunctionSignature{
			"app:matcher/classify#run": {
				Params: map[string]blueprint.ParamKind{"input": blueprint.ParamString},
				Return: blueprint.ParamString,
			},
		},
	}
	return iface, world
}

func Test_ValueProxy_Invoke_Success(t *testing.T) {
	iface, world := classifyWorld(t)
	instance := new(mockComponentInstance)
	args := map[string]wireformat.Value{"input": {Kind: wireformat.KindString, Str: "hi"}}
	instance.On("Invoke", mock.Anything, iface, "run", args).
		Return(wireformat.Value{Kind: wireformat.KindString, Str: "label"}, nil)

	proxy := NewValueProxy(1 << 20)
	result, err := proxy.Invoke(context.Background(), "matcher", "classify_step", world,
		blueprint.QualifiedFunction{Interface: iface, Function: "run"}, args, instance)

	require.NoError(t, err)
	assert.Equal(t, "label", result.Str)
	instance.AssertExpectations(t)
}

func Test_ValueProxy_Invoke_UnknownSignature(t *testing.T) {
	_, world := classifyWorld(t)
	instance := new(mockComponentInstance)
	proxy := NewValueProxy(1 << 20)

	otherIface, err := blueprint.ParseInterfaceName("app:matcher/other")
	require.NoError(t, err)

	_, err = proxy.Invoke(context.Background(), "matcher", "classify_step", world,
		blueprint.QualifiedFunction{Interface: otherIface, Function: "run"}, nil, instance)

	require.Error(t, err)
	instance.AssertNotCalled(t, "Invoke")
}

func Test_ValueProxy_Invoke_MissingArgument(t *testing.T) {
	iface, world := classifyWorld(t)
	instance := new(mockComponentInstance)
	proxy := NewValueProxy(1 << 20)

	_, err := proxy.Invoke(context.Background(), "matcher", "classify_step", world,
		blueprint.QualifiedFunction{Interface: iface, Function: "run"}, map[string]wireformat.Value{}, instance)

	require.Error(t, err)
	instance.AssertNotCalled(t, "Invoke")
}

func Test_ValueProxy_Invoke_UnexpectedArgument(t *testing.T) {
	iface, world := classifyWorld(t)
	instance := new(mockComponentInstance)
	proxy := NewValueProxy(1 << 20)

	args := map[string]wireformat.Value{
		"input": {Kind: wireformat.KindString, Str: "hi"},
		"extra": {Kind: wireformat.KindString, Str: "nope"},
	}
	_, err := proxy.Invoke(context.Background(), "matcher", "classify_step", world,
		blueprint.QualifiedFunction{Interface: iface, Function: "run"}, args, instance)

	require.Error(t, err)
	instance.AssertNotCalled(t, "Invoke")
}

func Test_ValueProxy_Invoke_TypeMismatch(t *testing.T) {
	iface, world := classifyWorld(t)
	instance := new(mockComponentInstance)
	proxy := NewValueProxy(1 << 20)

	args := map[string]wireformat.Value{"input": {Kind: wireformat.KindInt, Int: 1}}
	_, err := proxy.Invoke(context.Background(), "matcher", "classify_step", world,
		blueprint.QualifiedFunction{Interface: iface, Function: "run"}, args, instance)

	require.Error(t, err)
	instance.AssertNotCalled(t, "Invoke")
}

func Test_ValueProxy_Invoke_PayloadTooLarge(t *testing.T) {
	iface, world := classifyWorld(t)
	instance := new(mockComponentInstance)
	proxy := NewValueProxy(4)

	args := map[string]wireformat.Value{"input": {Kind: wireformat.KindString, Str: "this string is definitely too long"}}
	_, err := proxy.Invoke(context.Background(), "matcher", "classify_step", world,
		blueprint.QualifiedFunction{Interface: iface, Function: "run"}, args, instance)

	require.Error(t, err)
	instance.AssertNotCalled(t, "Invoke")
}

func Test_ValueProxy_Invoke_ReturnTypeMismatch(t *testing.T) {
	iface, world := classifyWorld(t)
	instance := new(mockComponentInstance)
	args := map[string]wireformat.Value{"input": {Kind: wireformat.KindString, Str: "hi"}}
	instance.On("Invoke", mock.Anything, iface, "run", args).
		Return(wireformat.Value{Kind: wireformat.KindInt, Int: 7}, nil)

	proxy := NewValueProxy(1 << 20)
	_, err := proxy.Invoke(context.Background(), "matcher", "classify_step", world,
		blueprint.QualifiedFunction{Interface: iface, Function: "run"}, args, instance)

	require.Error(t, err)
}

func Test_ValueProxy_Invoke_AnyParamAcceptsAnyKind(t *testing.T) {
	iface, err := blueprint.ParseInterfaceName("app:sink/collect")
	require.NoError(t, err)
	world := blueprint.ComponentWorld{
		Signatures: map[string]blueprint.FunctionSignature{
			"app:sink/collect#run": {
				Params: map[string]blueprint.ParamKind{"input": blueprint.ParamAny},
				Return: blueprint.ParamAny,
			},
		},
	}
	instance := new(mockComponentInstance)
	args := map[string]wireformat.Value{"input": {Kind: wireformat.KindList, List: []wireformat.Value{{Kind: wireformat.KindInt, Int: 1}}}}
	instance.On("Invoke", mock.Anything, iface, "run", args).
		Return(wireformat.Value{Kind: wireformat.KindBool, Bool: true}, nil)

	proxy := NewValueProxy(1 << 20)
	result, err := proxy.Invoke(context.Background(), "sink", "collect_step", world,
		blueprint.QualifiedFunction{Interface: iface, Function: "run"}, args, instance)

	require.NoError(t, err)
	assert.True(t, result.Bool)
}

func Test_ValidateWorldMetadata_AcceptsWellFormedDocument(t *testing.T) {
	raw := []byte(`{
		"imports": ["wasi:filesystem/types"],
		"exports": ["app:matcher/classify"],
		"export_functions": {"app:matcher/classify": ["run"]},
		"signatures": {
			"app:matcher/classify#run": {"params": {"input": "string"}, "return": "string"}
		}
	}`)
	require.NoError(t, ValidateWorldMetadata(raw))
}

func Test_ValidateWorldMetadata_RejectsMalformedJSON(t *testing.T) {
	require.Error(t, ValidateWorldMetadata([]byte("not json")))
}

func Test_ValidateWorldMetadata_RejectsMissingRequiredField(t *testing.T) {
	raw := []byte(`{"exports": ["app:matcher/classify"]}`)
	require.Error(t, ValidateWorldMetadata(raw))
}

func Test_ValidateWorldMetadata_RejectsWrongFieldType(t *testing.T) {
	raw := []byte(`{"imports": "wasi:filesystem/types", "exports": []}`)
	require.Error(t, ValidateWorldMetadata(raw))
}

func Test_ValidateWorldMetadata_RejectsSignatureMissingReturn(t *testing.T) {
	raw := []byte(`{
		"imports": [],
		"exports": ["app:matcher/classify"],
		"signatures": {
			"app:matcher/classify#run": {"params": {"input": "string"}}
		}
	}`)
	require.Error(t, ValidateWorldMetadata(raw))
}
