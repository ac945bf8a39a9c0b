package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testNode struct {
	id        string
	dependsOn []string
}

func (n testNode) NodeID() string      { return n.id }
func (n testNode) DependsOn() []string { return n.dependsOn }

func Test_BuildLevels_NoDependencies(t *testing.T) {
	nodes := []testNode{
		{id: "step-1"},
		{id: "step-2"},
		{id: "step-3"},
	}

	levels, err := BuildLevels(nodes)
	require.NoError(t, err)
	require.Len(t, levels, 1, "all nodes should be in level 0")
	assert.Equal(t, 0, levels[0].Depth)
	assert.Len(t, levels[0].Nodes, 3)
}

func Test_BuildLevels_LinearDependencies(t *testing.T) {
	nodes := []testNode{
		{id: "fetch"},
		{id: "summarize", dependsOn: []string{"fetch"}},
		{id: "notify", dependsOn: []string{"summarize"}},
	}

	levels, err := BuildLevels(nodes)
	require.NoError(t, err)
	require.Len(t, levels, 3)

	assert.Equal(t, 0, levels[0].Depth)
	assert.Len(t, levels[0].Nodes, 1)
	assert.Equal(t, "fetch", levels[0].Nodes[0].id)

	assert.Equal(t, 1, levels[1].Depth)
	assert.Equal(t, "summarize", levels[1].Nodes[0].id)

	assert.Equal(t, 2, levels[2].Depth)
	assert.Equal(t, "notify", levels[2].Nodes[0].id)
}

func Test_BuildLevels_ParallelExecution(t *testing.T) {
	nodes := []testNode{
		{id: "fetch"},
		{id: "summarize-a", dependsOn: []string{"fetch"}},
		{id: "summarize-b", dependsOn: []string{"fetch"}},
		{id: "summarize-c", dependsOn: []string{"fetch"}},
	}

	levels, err := BuildLevels(nodes)
	require.NoError(t, err)
	require.Len(t, levels, 2)

	assert.Len(t, levels[0].Nodes, 1)
	assert.Equal(t, "fetch", levels[0].Nodes[0].id)

	assert.Len(t, levels[1].Nodes, 3)
}

func Test_BuildLevels_CircularDependency(t *testing.T) {
	nodes := []testNode{
		{id: "a", dependsOn: []string{"b"}},
		{id: "b", dependsOn: []string{"a"}},
	}

	_, err := BuildLevels(nodes)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circular dependency")
}

func Test_BuildLevels_NonExistentDependency(t *testing.T) {
	nodes := []testNode{
		{id: "a", dependsOn: []string{"missing"}},
	}

	_, err := BuildLevels(nodes)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-existent node")
}

func Test_TransitiveClosure_NoDeps(t *testing.T) {
	nodes := []testNode{
		{id: "a"},
		{id: "b"},
	}

	deps, err := TransitiveClosure(nodes)
	require.NoError(t, err)
	assert.Len(t, deps["a"], 0)
	assert.Len(t, deps["b"], 0)
}

func Test_TransitiveClosure_DirectDeps(t *testing.T) {
	nodes := []testNode{
		{id: "a"},
		{id: "b", dependsOn: []string{"a"}},
	}

	deps, err := TransitiveClosure(nodes)
	require.NoError(t, err)
	assert.Len(t, deps["a"], 0)
	assert.Len(t, deps["b"], 1)
	assert.True(t, deps["b"]["a"])
}

func Test_TransitiveClosure_TransitiveDeps(t *testing.T) {
	nodes := []testNode{
		{id: "a"},
		{id: "b", dependsOn: []string{"a"}},
		{id: "c", dependsOn: []string{"b"}},
	}

	deps, err := TransitiveClosure(nodes)
	require.NoError(t, err)

	assert.Len(t, deps["c"], 2)
	assert.True(t, deps["c"]["b"])
	assert.True(t, deps["c"]["a"])
}

func Test_TransitiveClosure_CircularDependency(t *testing.T) {
	nodes := []testNode{
		{id: "a", dependsOn: []string{"b"}},
		{id: "b", dependsOn: []string{"a"}},
	}

	_, err := TransitiveClosure(nodes)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circular dependency")
}
