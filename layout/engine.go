package layout

import (
	"math/rand/v2"
	"sort"

	"github.com/c360/eventscape/flowgraph"
)

// Spawn region for nodes without a cause in the window: a box above
// the origin so fresh activity drifts down into the cloud.
const (
	spawnSpanXZ = 10.0
	spawnSpanY  = 10.0
)

// Engine runs the force simulation over a set of node positions.
type Engine struct {
	cfg Config
	rng *rand.Rand

	pos map[string]Vec3
	vel map[string]Vec3
}

// New creates an engine with the given parameters. The config must
// have been validated.
func New(cfg Config) *Engine {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &Engine{
		cfg: cfg,
		rng: rand.New(rand.NewPCG(seed, seed)),
		pos: make(map[string]Vec3),
		vel: make(map[string]Vec3),
	}
}

// Place introduces a node. With a parent currently in the layout, the
// node spawns a small random offset away from it; otherwise it spawns
// in the box above the origin. Placing a known node is a no-op so
// re-ingest never teleports anything.
func (e *Engine) Place(id, parentID string) {
	if _, ok := e.pos[id]; ok {
		return
	}
	if parent, ok := e.pos[parentID]; parentID != "" && ok {
		e.pos[id] = parent.Add(e.jitter(e.cfg.SpawnOffset))
	} else {
		e.pos[id] = Vec3{
			X: (e.rng.Float64()*2 - 1) * spawnSpanXZ,
			Y: e.rng.Float64() * spawnSpanY,
			Z: (e.rng.Float64()*2 - 1) * spawnSpanXZ,
		}
	}
	e.vel[id] = Vec3{}
}

// Forget drops a node from the simulation.
func (e *Engine) Forget(id string) {
	delete(e.pos, id)
	delete(e.vel, id)
}

// Contains reports whether the node is in the layout.
func (e *Engine) Contains(id string) bool {
	_, ok := e.pos[id]
	return ok
}

// Len returns the number of nodes in the layout.
func (e *Engine) Len() int { return len(e.pos) }

// Position returns the current position of a node.
func (e *Engine) Position(id string) (Vec3, bool) {
	p, ok := e.pos[id]
	return p, ok
}

// Positions returns a copy of every node position.
func (e *Engine) Positions() map[string]Vec3 {
	out := make(map[string]Vec3, len(e.pos))
	for id, p := range e.pos {
		out[id] = p
	}
	return out
}

// Step advances the simulation by dt seconds under the given edges.
// Edges referencing nodes not in the layout are skipped.
func (e *Engine) Step(dt float64, edges []flowgraph.Edge) {
	if dt <= 0 || len(e.pos) == 0 {
		return
	}

	ids := e.sortedIDs()
	forces := make(map[string]Vec3, len(ids))

	// Pairwise inverse-square repulsion.
	for i, a := range ids {
		for _, b := range ids[i+1:] {
			delta := e.pos[a].Sub(e.pos[b])
			dist := delta.Length()
			if dist < e.cfg.MinDistance {
				dist = e.cfg.MinDistance
				// Coincident nodes get a deterministic push direction.
				delta = Vec3{X: e.cfg.MinDistance}
			}
			push := delta.Scale(e.cfg.Repulsion / (dist * dist * dist))
			forces[a] = forces[a].Add(push)
			forces[b] = forces[b].Sub(push)
		}
	}

	// Spring attraction along edges toward the rest length.
	for _, edge := range edges {
		pa, okA := e.pos[edge.From]
		pb, okB := e.pos[edge.To]
		if !okA || !okB {
			continue
		}
		delta := pb.Sub(pa)
		dist := delta.Length()
		if dist < e.cfg.MinDistance {
			continue
		}
		rest := e.cfg.RestCausation
		if edge.Kind == flowgraph.KindCorrelation {
			rest = e.cfg.RestCorrelation
		}
		pull := delta.Scale(e.cfg.SpringK * edge.Weight * (dist - rest) / dist)
		forces[edge.From] = forces[edge.From].Add(pull)
		forces[edge.To] = forces[edge.To].Sub(pull)
	}

	// Centering, integration, damping, bounds. A clamped axis zeroes
	// its velocity component so nodes do not grind against the wall.
	for _, id := range ids {
		f := forces[id].Add(e.pos[id].Scale(-e.cfg.CenterK))
		v := e.vel[id].Add(f.Scale(dt)).Scale(e.cfg.Damping)
		p := e.pos[id].Add(v.Scale(dt))
		p.X, v.X = clampAxis(p.X, v.X, e.cfg.Bounds)
		p.Y, v.Y = clampAxis(p.Y, v.Y, e.cfg.Bounds)
		p.Z, v.Z = clampAxis(p.Z, v.Z, e.cfg.Bounds)
		e.vel[id] = v
		e.pos[id] = p
	}
}

func (e *Engine) jitter(scale float64) Vec3 {
	v := Vec3{
		X: e.rng.Float64()*2 - 1,
		Y: e.rng.Float64()*2 - 1,
		Z: e.rng.Float64()*2 - 1,
	}
	if l := v.Length(); l > 0 {
		v = v.Scale(scale / l)
	} else {
		v = Vec3{X: scale}
	}
	return v
}

func (e *Engine) sortedIDs() []string {
	ids := make([]string, 0, len(e.pos))
	for id := range e.pos {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func clampAxis(p, v, bound float64) (float64, float64) {
	if p > bound {
		return bound, 0
	}
	if p < -bound {
		return -bound, 0
	}
	return p, v
}
