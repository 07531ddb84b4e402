package layout

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/eventscape/flowgraph"
)

func seededConfig() Config {
	cfg := DefaultConfig()
	cfg.Seed = 42
	return cfg
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	bad := DefaultConfig()
	bad.Damping = 1.0
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.MinDistance = 0
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.Repulsion = -1
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.RestCausation = 0
	assert.Error(t, bad.Validate())
}

func TestPlaceSpawnsNearParent(t *testing.T) {
	e := New(seededConfig())
	e.Place("parent", "")
	e.Place("child", "parent")

	parent, ok := e.Position("parent")
	require.True(t, ok)
	child, ok := e.Position("child")
	require.True(t, ok)

	dist := child.Sub(parent).Length()
	assert.InDelta(t, DefaultSpawnOffset, dist, 0.001, "child spawns at the spawn offset from its cause")
}

func TestPlaceWithoutParentSpawnsInBox(t *testing.T) {
	e := New(seededConfig())
	e.Place("a", "")

	p, ok := e.Position("a")
	require.True(t, ok)
	assert.LessOrEqual(t, math.Abs(p.X), spawnSpanXZ)
	assert.GreaterOrEqual(t, p.Y, 0.0)
	assert.LessOrEqual(t, p.Y, spawnSpanY)
	assert.LessOrEqual(t, math.Abs(p.Z), spawnSpanXZ)
}

func TestPlaceKnownNodeIsNoop(t *testing.T) {
	e := New(seededConfig())
	e.Place("a", "")
	before, _ := e.Position("a")

	e.Place("a", "")
	after, _ := e.Position("a")
	assert.Equal(t, before, after)
}

func TestForgetRemovesNode(t *testing.T) {
	e := New(seededConfig())
	e.Place("a", "")
	require.True(t, e.Contains("a"))

	e.Forget("a")
	assert.False(t, e.Contains("a"))
	assert.Equal(t, 0, e.Len())
}

func TestStepPullsConnectedNodesTogether(t *testing.T) {
	cfg := seededConfig()
	e := New(cfg)
	e.Place("a", "")
	e.Place("b", "")

	// Force the nodes far apart so the spring dominates
	e.pos["a"] = Vec3{X: -20}
	e.pos["b"] = Vec3{X: 20}

	edges := []flowgraph.Edge{
		{From: "a", To: "b", Kind: flowgraph.KindCausation, Weight: flowgraph.CausationWeight},
	}

	before := e.pos["b"].Sub(e.pos["a"]).Length()
	for i := 0; i < 50; i++ {
		e.Step(0.25, edges)
	}
	after := e.pos["b"].Sub(e.pos["a"]).Length()

	assert.Less(t, after, before, "spring pulls linked nodes toward each other")
}

func TestStepPullsCorrelatedNodesTogether(t *testing.T) {
	cfg := seededConfig()
	e := New(cfg)
	e.Place("a", "")
	e.Place("b", "")

	// Correlation springs are weaker and longer than causation ones,
	// but far beyond the rest length they still pull the pair in.
	e.pos["a"] = Vec3{X: -20}
	e.pos["b"] = Vec3{X: 20}

	edges := []flowgraph.Edge{
		{From: "a", To: "b", Kind: flowgraph.KindCorrelation, Weight: flowgraph.CorrelationWeight},
	}

	before := e.pos["b"].Sub(e.pos["a"]).Length()
	for i := 0; i < 50; i++ {
		e.Step(0.25, edges)
	}
	after := e.pos["b"].Sub(e.pos["a"]).Length()

	assert.Less(t, after, before, "correlation spring draws the pair toward its rest length")
}

func TestStepPushesUnconnectedNodesApart(t *testing.T) {
	e := New(seededConfig())
	e.Place("a", "")
	e.Place("b", "")

	e.pos["a"] = Vec3{X: -0.5}
	e.pos["b"] = Vec3{X: 0.5}

	before := e.pos["b"].Sub(e.pos["a"]).Length()
	for i := 0; i < 10; i++ {
		e.Step(0.25, nil)
	}
	after := e.pos["b"].Sub(e.pos["a"]).Length()

	assert.Greater(t, after, before, "repulsion separates unlinked nodes")
}

func TestStepRespectsBounds(t *testing.T) {
	cfg := seededConfig()
	cfg.Bounds = 5.0
	e := New(cfg)
	for _, id := range []string{"a", "b", "c", "d"} {
		e.Place(id, "")
	}

	for i := 0; i < 200; i++ {
		e.Step(0.25, nil)
	}

	for id, p := range e.Positions() {
		assert.LessOrEqual(t, math.Abs(p.X), cfg.Bounds, "node %s X in bounds", id)
		assert.LessOrEqual(t, math.Abs(p.Y), cfg.Bounds, "node %s Y in bounds", id)
		assert.LessOrEqual(t, math.Abs(p.Z), cfg.Bounds, "node %s Z in bounds", id)
	}
}

func TestStepHandlesCoincidentNodes(t *testing.T) {
	e := New(seededConfig())
	e.Place("a", "")
	e.Place("b", "")
	e.pos["a"] = Vec3{}
	e.pos["b"] = Vec3{}

	e.Step(0.25, nil)

	pa := e.pos["a"]
	pb := e.pos["b"]
	assert.False(t, math.IsNaN(pa.X) || math.IsNaN(pb.X), "no NaN from zero distance")
	assert.NotEqual(t, pa, pb, "coincident nodes get pushed apart")
}

func TestStepZeroDtIsNoop(t *testing.T) {
	e := New(seededConfig())
	e.Place("a", "")
	before, _ := e.Position("a")

	e.Step(0, nil)

	after, _ := e.Position("a")
	assert.Equal(t, before, after)
}

func TestStepEdgesWithUnknownEndpointsSkipped(t *testing.T) {
	e := New(seededConfig())
	e.Place("a", "")

	edges := []flowgraph.Edge{
		{From: "a", To: "ghost", Kind: flowgraph.KindCausation, Weight: 1},
	}
	assert.NotPanics(t, func() {
		e.Step(0.25, edges)
	})
}

func TestSameSeedSameTrajectory(t *testing.T) {
	run := func() map[string]Vec3 {
		e := New(seededConfig())
		e.Place("a", "")
		e.Place("b", "a")
		e.Place("c", "a")
		for i := 0; i < 20; i++ {
			e.Step(0.25, []flowgraph.Edge{
				{From: "b", To: "a", Kind: flowgraph.KindCausation, Weight: 1},
				{From: "c", To: "a", Kind: flowgraph.KindCausation, Weight: 1},
			})
		}
		return e.Positions()
	}

	assert.Equal(t, run(), run())
}
