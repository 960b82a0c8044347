package constraint

import (
	"github.com/chewxy/math32"
	"github.com/zphy/zphy/actor"
)

type Constraint interface {
	Solve(a, b *actor.RigidBody)
}

// ComputeRestitution combines the restitution of two bodies.
// The smaller coefficient wins: an inelastic surface absorbs the bounce.
func ComputeRestitution(a, b *actor.RigidBody) float32 {
	return math32.Min(a.Restitution, b.Restitution)

	// Average:        (a.Restitution + b.Restitution) / 2
	// Geometric mean: math32.Sqrt(a.Restitution * b.Restitution)
}

// ComputeFriction combines the friction of two bodies (geometric mean)
func ComputeFriction(a, b *actor.RigidBody) float32 {
	return math32.Sqrt(a.Friction * b.Friction)
}
