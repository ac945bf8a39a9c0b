package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pypes-dev/pypes/internal/domain/execution"
	"github.com/pypes-dev/pypes/internal/domain/values"
	"github.com/pypes-dev/pypes/wireformat"
)

func newTestEnvironment(t *testing.T) *execution.ValueEnvironment {
	t.Helper()
	env := execution.NewValueEnvironment(values.NewRunID())
	require.NoError(t, env.Record("fetch_page", execution.StepOutcome{
		Status: values.StepCompleted,
		Value: wireformat.Value{
			Kind: wireformat.KindRecord,
			Record: map[string]wireformat.Value{
				"body": {Kind: wireformat.KindString, Str: "hello world"},
			},
		},
	}))
	require.NoError(t, env.Record("count_items", execution.StepOutcome{
		Status: values.StepCompleted,
		Value:  wireformat.Value{Kind: wireformat.KindInt, Int: 42},
	}))
	return env
}

func Test_TemplateEngine_Expand_BareReference(t *testing.T) {
	engine := NewTemplateEngine()
	env := newTestEnvironment(t)

	out, err := engine.Expand("summarize_step", "{{ count_items.output }}", env)
	require.NoError(t, err)
	assert.Equal(t, "42", out)
}

func Test_TemplateEngine_Expand_PathAndFilter(t *testing.T) {
	engine := NewTemplateEngine()
	env := newTestEnvironment(t)

	out, err := engine.Expand("summarize_step", "reply: {{ fetch_page.output.body | upper }}", env)
	require.NoError(t, err)
	assert.Equal(t, "reply: HELLO WORLD", out)
}

func Test_TemplateEngine_Expand_LengthFilter(t *testing.T) {
	engine := NewTemplateEngine()
	env := newTestEnvironment(t)

	out, err := engine.Expand("summarize_step", "{{ fetch_page.output.body | length }}", env)
	require.NoError(t, err)
	assert.Equal(t, "11", out)
}

func Test_TemplateEngine_Expand_UnknownFilter_IsTemplateError(t *testing.T) {
	engine := NewTemplateEngine()
	env := newTestEnvironment(t)

	_, err := engine.Expand("summarize_step", "{{ fetch_page.output.body | shout }}", env)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shout")
}

func Test_TemplateEngine_Expand_UnresolvedStep_IsTemplateError(t *testing.T) {
	engine := NewTemplateEngine()
	env := newTestEnvironment(t)

	_, err := engine.Expand("summarize_step", "{{ missing_step.output }}", env)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing_step")
}

func Test_TemplateEngine_Expand_SummarizeTruncates(t *testing.T) {
	engine := NewTemplateEngine()
	env := newTestEnvironment(t)

	out, err := engine.Expand("summarize_step", "{{ fetch_page.output.body | summarize(5) }}", env)
	require.NoError(t, err)
	assert.Equal(t, "hello...", out)
}

func Test_TemplateEngine_ResolveCondition_PreservesKind(t *testing.T) {
	engine := NewTemplateEngine()
	env := newTestEnvironment(t)

	value, err := engine.ResolveCondition("fetch", "{{ count_items.output }}", env)
	require.NoError(t, err)
	assert.Equal(t, wireformat.KindInt, value.Kind)
	assert.Equal(t, int64(42), value.Int)
}

func Test_TemplateEngine_ResolveCondition_EmptyList(t *testing.T) {
	engine := NewTemplateEngine()
	env := execution.NewValueEnvironment(values.NewRunID())
	require.NoError(t, env.Record("items", execution.StepOutcome{
		Status: values.StepCompleted,
		Value:  wireformat.Value{Kind: wireformat.KindList, List: nil},
	}))

	value, err := engine.ResolveCondition("fetch", "{{ items.output }}", env)
	require.NoError(t, err)
	assert.False(t, Truthy(value))
}

func Test_TemplateEngine_ResolveCondition_FilterCollapsesToString(t *testing.T) {
	engine := NewTemplateEngine()
	env := newTestEnvironment(t)

	value, err := engine.ResolveCondition("fetch", "{{ fetch_page.output.body | upper }}", env)
	require.NoError(t, err)
	assert.Equal(t, wireformat.KindString, value.Kind)
	assert.Equal(t, "HELLO WORLD", value.Str)
}

func Test_Truthy(t *testing.T) {
	assert.False(t, Truthy(wireformat.Value{Kind: wireformat.KindString, Str: ""}))
	assert.True(t, Truthy(wireformat.Value{Kind: wireformat.KindString, Str: "x"}))
	assert.False(t, Truthy(wireformat.Value{Kind: wireformat.KindInt, Int: 0}))
	assert.False(t, Truthy(wireformat.Value{Kind: wireformat.KindBool, Bool: false}))
	assert.False(t, Truthy(wireformat.Value{Kind: wireformat.KindNone}))
}
