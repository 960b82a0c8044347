package zphy

import (
	"github.com/zphy/zphy/actor"
	"github.com/zphy/zphy/constraint"
	"github.com/zphy/zphy/sat"
)

// canCollide filters pairs that could never be resolved
func canCollide(bodyA, bodyB *actor.RigidBody) bool {
	return !(bodyA.Kind == actor.BodyKindStatic && bodyB.Kind == actor.BodyKindStatic)
}

// BroadPhase returns candidate pairs sorted by (IndexA, IndexB).
// A nil grid tests every unordered pair, otherwise the grid culls pairs whose
// bounding boxes are apart. Both produce the same contacts.
func BroadPhase(spatialGrid *SpatialGrid, bodies []*actor.RigidBody) []Pair {
	if spatialGrid == nil {
		return AllPairs(bodies)
	}

	spatialGrid.Clear()
	for i, body := range bodies {
		spatialGrid.Insert(i, body)
	}
	spatialGrid.SortCells()

	return spatialGrid.FindPairs(bodies)
}

// AllPairs is the O(n²) broad phase
func AllPairs(bodies []*actor.RigidBody) []Pair {
	pairs := make([]Pair, 0, len(bodies))
	for i := 0; i < len(bodies); i++ {
		for j := i + 1; j < len(bodies); j++ {
			if canCollide(bodies[i], bodies[j]) {
				pairs = append(pairs, Pair{IndexA: i, IndexB: j})
			}
		}
	}
	return pairs
}

// NarrowPhase runs SAT on every pair and returns the contacts in pair order.
// It only reads the bodies, so the pairs are split across workers.
func NarrowPhase(bodies []*actor.RigidBody, pairs []Pair, workersCount int, friction bool) []*constraint.ContactConstraint {
	results := make([]*constraint.ContactConstraint, len(pairs))

	task(workersCount, pairs, func(i int, pair Pair) {
		if contact, ok := Detect(bodies, pair.IndexA, pair.IndexB); ok {
			if !friction {
				contact.Friction = 0
			}
			results[i] = contact
		}
	})

	contacts := make([]*constraint.ContactConstraint, 0, len(results))
	for _, c := range results {
		if c != nil {
			contacts = append(contacts, c)
		}
	}
	return contacts
}

// Detect tests bodies[i] against bodies[j]. The contact points are the box
// centers and the velocities are snapshots taken now.
func Detect(bodies []*actor.RigidBody, i, j int) (*constraint.ContactConstraint, bool) {
	bodyA := bodies[i]
	bodyB := bodies[j]

	result, ok := sat.Collide(bodyA.Collider, bodyB.Collider)
	if !ok {
		return nil, false
	}

	return &constraint.ContactConstraint{
		IndexA:      i,
		IndexB:      j,
		Normal:      result.Normal,
		Penetration: result.Penetration,
		PointA:      bodyA.Collider.Center(),
		PointB:      bodyB.Collider.Center(),
		VelocityA:   bodyA.Velocity,
		VelocityB:   bodyB.Velocity,
		Restitution: constraint.ComputeRestitution(bodyA, bodyB),
		Friction:    constraint.ComputeFriction(bodyA, bodyB),
	}, true
}
