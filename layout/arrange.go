package layout

import (
	"math"
	"math/rand/v2"
	"sort"

	"github.com/c360/eventscape/errors"
	"github.com/c360/eventscape/flowgraph"
)

// Algorithm names a one-shot arrangement.
type Algorithm string

const (
	// AlgoCircular places nodes evenly on a ring in the XZ plane.
	AlgoCircular Algorithm = "circular"
	// AlgoGrid places nodes on a centered square grid in the XZ plane.
	AlgoGrid Algorithm = "grid"
	// AlgoHierarchical layers nodes by causation depth, roots on top.
	AlgoHierarchical Algorithm = "hierarchical"
	// AlgoRandom scatters nodes uniformly through the bounds box.
	AlgoRandom Algorithm = "random"
)

const (
	circularRadius   = 20.0
	gridSpacing      = 5.0
	layerSpacing     = 10.0
	nodeSpacing      = 5.0
	barycenterPasses = 3
)

// Arrange computes positions for the given nodes with the named
// algorithm. It is a pure projection for snapshot surfaces: the force
// simulation's own state is never touched. Edges only matter to the
// hierarchical algorithm; the rest ignore them.
func Arrange(algo Algorithm, ids []string, edges []flowgraph.Edge, cfg Config) (map[string]Vec3, error) {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)

	switch algo {
	case AlgoCircular:
		return arrangeCircular(sorted), nil
	case AlgoGrid:
		return arrangeGrid(sorted), nil
	case AlgoHierarchical:
		return arrangeHierarchical(sorted, edges), nil
	case AlgoRandom:
		return arrangeRandom(sorted, cfg), nil
	default:
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "layout", "Arrange", "unknown algorithm "+string(algo))
	}
}

func arrangeCircular(ids []string) map[string]Vec3 {
	out := make(map[string]Vec3, len(ids))
	n := len(ids)
	for i, id := range ids {
		angle := 2 * math.Pi * float64(i) / float64(n)
		out[id] = Vec3{X: circularRadius * math.Cos(angle), Z: circularRadius * math.Sin(angle)}
	}
	return out
}

func arrangeGrid(ids []string) map[string]Vec3 {
	out := make(map[string]Vec3, len(ids))
	n := len(ids)
	if n == 0 {
		return out
	}
	cols := int(math.Ceil(math.Sqrt(float64(n))))
	rows := (n + cols - 1) / cols
	for i, id := range ids {
		row, col := i/cols, i%cols
		out[id] = Vec3{
			X: (float64(col) - float64(cols-1)/2) * gridSpacing,
			Z: (float64(row) - float64(rows-1)/2) * gridSpacing,
		}
	}
	return out
}

// arrangeHierarchical stacks nodes into layers by causation depth,
// roots at the top, then runs a few barycenter passes so children line
// up under their causes instead of their arbitrary sort position.
func arrangeHierarchical(ids []string, edges []flowgraph.Edge) map[string]Vec3 {
	causeOf := make(map[string]string)
	for _, edge := range edges {
		if edge.Kind == flowgraph.KindCausation {
			causeOf[edge.From] = edge.To
		}
	}

	depths := make(map[string]int, len(ids))
	var depthOf func(id string, hops int) int
	depthOf = func(id string, hops int) int {
		if d, ok := depths[id]; ok {
			return d
		}
		// hops guards against cycles in malformed causation data.
		cause, ok := causeOf[id]
		d := 0
		if ok && hops < len(ids) {
			d = depthOf(cause, hops+1) + 1
		}
		depths[id] = d
		return d
	}

	layers := make(map[int][]string)
	maxDepth := 0
	for _, id := range ids {
		d := depthOf(id, 0)
		layers[d] = append(layers[d], id)
		if d > maxDepth {
			maxDepth = d
		}
	}

	// Initial x by layer order, y by depth.
	out := make(map[string]Vec3, len(ids))
	for depth := 0; depth <= maxDepth; depth++ {
		layer := layers[depth]
		for i, id := range layer {
			out[id] = Vec3{
				X: (float64(i) - float64(len(layer)-1)/2) * nodeSpacing,
				Y: float64(maxDepth-depth) * layerSpacing,
			}
		}
	}

	// Barycenter relaxation: pull each node toward the mean x of its
	// cause and children, then re-spread the layer to keep spacing.
	children := make(map[string][]string)
	for child, cause := range causeOf {
		children[cause] = append(children[cause], child)
	}
	for pass := 0; pass < barycenterPasses; pass++ {
		for depth := 0; depth <= maxDepth; depth++ {
			layer := layers[depth]
			for _, id := range layer {
				var sum float64
				var count int
				if cause, ok := causeOf[id]; ok {
					if p, ok := out[cause]; ok {
						sum += p.X
						count++
					}
				}
				for _, child := range children[id] {
					if p, ok := out[child]; ok {
						sum += p.X
						count++
					}
				}
				if count > 0 {
					p := out[id]
					p.X = sum / float64(count)
					out[id] = p
				}
			}
			respreadLayer(layer, out)
		}
	}
	return out
}

// respreadLayer re-spaces a layer left to right by barycenter order so
// relaxation never stacks nodes on top of each other.
func respreadLayer(layer []string, pos map[string]Vec3) {
	if len(layer) < 2 {
		return
	}
	ordered := append([]string(nil), layer...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return pos[ordered[i]].X < pos[ordered[j]].X
	})
	for i, id := range ordered {
		p := pos[id]
		p.X = (float64(i) - float64(len(ordered)-1)/2) * nodeSpacing
		pos[id] = p
	}
}

func arrangeRandom(ids []string, cfg Config) map[string]Vec3 {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, seed))
	out := make(map[string]Vec3, len(ids))
	for _, id := range ids {
		out[id] = Vec3{
			X: (rng.Float64()*2 - 1) * cfg.Bounds,
			Y: (rng.Float64()*2 - 1) * cfg.Bounds,
			Z: (rng.Float64()*2 - 1) * cfg.Bounds,
		}
	}
	return out
}
