// Package layout computes 3D positions for the events in the window.
//
// The primary mode is an incremental force-directed simulation: every
// tick, connected events pull together along their edges, all events
// push apart, and a weak centering force keeps the cloud near the
// origin. New events spawn next to their cause so chains grow outward
// instead of teleporting in.
//
// One-shot arrangements (circular, grid, hierarchical, random) are
// pure projections for snapshot surfaces; they never feed back into
// the running simulation.
//
// Like flowgraph, the engine assumes a single owner and does no
// internal locking.
package layout

import (
	"math"

	"github.com/c360/eventscape/errors"
)

// Vec3 is a position or velocity in layout space.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Add returns v + w.
func (v Vec3) Add(w Vec3) Vec3 { return Vec3{v.X + w.X, v.Y + w.Y, v.Z + w.Z} }

// Sub returns v - w.
func (v Vec3) Sub(w Vec3) Vec3 { return Vec3{v.X - w.X, v.Y - w.Y, v.Z - w.Z} }

// Scale returns v scaled by s.
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

// Length returns the Euclidean norm of v.
func (v Vec3) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Standard force constants. Tuned for windows of around a hundred
// nodes; larger graphs want weaker repulsion.
const (
	DefaultRepulsion   = 10.0
	DefaultSpringK     = 0.1
	DefaultCenterK     = 0.01
	DefaultDamping     = 0.9
	DefaultMinDistance = 0.1
	DefaultBounds      = 50.0
	DefaultSpawnOffset = 2.0

	DefaultRestCausation   = 2.0
	DefaultRestCorrelation = 3.5
)

// Config holds the simulation parameters.
type Config struct {
	// Repulsion scales the inverse-square push between every node pair.
	Repulsion float64 `json:"repulsion"`
	// SpringK scales the pull along edges, multiplied by edge weight.
	SpringK float64 `json:"spring_k"`
	// CenterK scales the pull of every node toward the origin.
	CenterK float64 `json:"center_k"`
	// Damping multiplies velocity each step; must be below 1 for the
	// simulation to settle.
	Damping float64 `json:"damping"`
	// MinDistance floors pair distances so coincident nodes produce a
	// large finite push instead of dividing by zero.
	MinDistance float64 `json:"min_distance"`
	// Bounds clamps every coordinate to [-Bounds, Bounds].
	Bounds float64 `json:"bounds"`
	// SpawnOffset is how far from its cause a new node appears.
	SpawnOffset float64 `json:"spawn_offset"`
	// RestCausation and RestCorrelation are the natural lengths of the
	// two edge kinds.
	RestCausation   float64 `json:"rest_causation"`
	RestCorrelation float64 `json:"rest_correlation"`
	// Seed fixes the spawn jitter sequence. Zero seeds from the clock.
	Seed uint64 `json:"seed,omitempty"`
}

// DefaultConfig returns the standard simulation parameters.
func DefaultConfig() Config {
	return Config{
		Repulsion:       DefaultRepulsion,
		SpringK:         DefaultSpringK,
		CenterK:         DefaultCenterK,
		Damping:         DefaultDamping,
		MinDistance:     DefaultMinDistance,
		Bounds:          DefaultBounds,
		SpawnOffset:     DefaultSpawnOffset,
		RestCausation:   DefaultRestCausation,
		RestCorrelation: DefaultRestCorrelation,
	}
}

// Validate checks the simulation parameters.
func (c Config) Validate() error {
	fail := func(action string) error {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "layout", "Validate", action)
	}
	if c.Repulsion < 0 || c.SpringK < 0 || c.CenterK < 0 {
		return fail("force constants must be non-negative")
	}
	if c.Damping <= 0 || c.Damping >= 1 {
		return fail("damping must be in (0, 1)")
	}
	if c.MinDistance <= 0 {
		return fail("min_distance must be positive")
	}
	if c.Bounds <= 0 {
		return fail("bounds must be positive")
	}
	if c.RestCausation <= 0 || c.RestCorrelation <= 0 {
		return fail("rest lengths must be positive")
	}
	return nil
}
