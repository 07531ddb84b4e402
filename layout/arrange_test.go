package layout

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/eventscape/flowgraph"
)

func TestArrangeUnknownAlgorithm(t *testing.T) {
	_, err := Arrange(Algorithm("spiral"), []string{"a"}, nil, DefaultConfig())
	assert.Error(t, err)
}

func TestArrangeCircular(t *testing.T) {
	ids := []string{"a", "b", "c", "d"}
	pos, err := Arrange(AlgoCircular, ids, nil, DefaultConfig())
	require.NoError(t, err)
	require.Len(t, pos, 4)

	for id, p := range pos {
		radius := math.Sqrt(p.X*p.X + p.Z*p.Z)
		assert.InDelta(t, circularRadius, radius, 0.001, "node %s on the ring", id)
		assert.Zero(t, p.Y)
	}

	// Distinct positions
	seen := make(map[Vec3]bool)
	for _, p := range pos {
		assert.False(t, seen[p])
		seen[p] = true
	}
}

func TestArrangeGrid(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e"}
	pos, err := Arrange(AlgoGrid, ids, nil, DefaultConfig())
	require.NoError(t, err)
	require.Len(t, pos, 5)

	// Grid is centered: positions sum to a small offset around origin
	for _, p := range pos {
		assert.Zero(t, p.Y)
		assert.LessOrEqual(t, math.Abs(p.X), 2*gridSpacing)
		assert.LessOrEqual(t, math.Abs(p.Z), 2*gridSpacing)
	}

	empty, err := Arrange(AlgoGrid, nil, nil, DefaultConfig())
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestArrangeHierarchicalLayersByCausationDepth(t *testing.T) {
	ids := []string{"root", "mid", "leaf", "other"}
	edges := []flowgraph.Edge{
		{From: "mid", To: "root", Kind: flowgraph.KindCausation, Weight: 1},
		{From: "leaf", To: "mid", Kind: flowgraph.KindCausation, Weight: 1},
	}

	pos, err := Arrange(AlgoHierarchical, ids, edges, DefaultConfig())
	require.NoError(t, err)
	require.Len(t, pos, 4)

	// Roots on top, each causation hop one layer down
	assert.Greater(t, pos["root"].Y, pos["mid"].Y)
	assert.Greater(t, pos["mid"].Y, pos["leaf"].Y)
	// "other" has no cause, so it sits in the root layer
	assert.Equal(t, pos["root"].Y, pos["other"].Y)
}

func TestArrangeHierarchicalSurvivesCausationCycle(t *testing.T) {
	ids := []string{"a", "b"}
	edges := []flowgraph.Edge{
		{From: "a", To: "b", Kind: flowgraph.KindCausation, Weight: 1},
		{From: "b", To: "a", Kind: flowgraph.KindCausation, Weight: 1},
	}

	assert.NotPanics(t, func() {
		pos, err := Arrange(AlgoHierarchical, ids, edges, DefaultConfig())
		require.NoError(t, err)
		assert.Len(t, pos, 2)
	})
}

func TestArrangeRandomStaysInBoundsAndSeeds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Seed = 7
	ids := []string{"a", "b", "c"}

	pos, err := Arrange(AlgoRandom, ids, nil, cfg)
	require.NoError(t, err)
	for id, p := range pos {
		assert.LessOrEqual(t, math.Abs(p.X), cfg.Bounds, "node %s", id)
		assert.LessOrEqual(t, math.Abs(p.Y), cfg.Bounds, "node %s", id)
		assert.LessOrEqual(t, math.Abs(p.Z), cfg.Bounds, "node %s", id)
	}

	again, err := Arrange(AlgoRandom, ids, nil, cfg)
	require.NoError(t, err)
	assert.Equal(t, pos, again, "same seed reproduces the scatter")
}
