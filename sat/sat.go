// Package sat implements the Separating Axis Theorem for oriented boxes.
//
// Two convex shapes are disjoint if and only if there is an axis on which their
// projected intervals do not overlap. For a pair of boxes, it is enough to test
// 15 candidate axes:
//   - the 3 face normals of A
//   - the 3 face normals of B
//   - the 9 cross products of A's and B's edge directions
//
// When every candidate overlaps, the axis with the smallest overlap is the
// minimum translation direction, and that overlap is the penetration depth.
//
// References:
//   - Ericson: "Real-Time Collision Detection" (2004), chapter 4.4
//   - Gottschalk, Lin, Manocha: "OBBTree: A Hierarchical Structure for Rapid
//     Interference Detection" (1996)
package sat

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/zphy/zphy/actor"
)

const (
	// ParallelEpsilon is the squared length under which an edge cross product
	// is treated as degenerate (near-parallel edges) and skipped.
	ParallelEpsilon = 1e-6

	// MaxAxes is the number of candidate axes for two boxes
	MaxAxes = 15
)

// Result describes the overlap of two boxes along their minimum separating axis
type Result struct {
	// Normal is a unit vector pointing from A's center toward B's center.
	// When the center offset is perpendicular to the winning axis, including
	// coincident centers, the axis is returned as generated and swapping A and B
	// gives the same normal instead of the opposite one.
	Normal mgl32.Vec3
	// Penetration is the overlap along Normal, always > 0 for a contact
	Penetration float32
	// Axis is the index of the winning axis in CandidateAxes order
	Axis int
}

// Axes holds the candidate separating axes of a box pair
type Axes struct {
	Vectors [MaxAxes]mgl32.Vec3
	Count   int
}

func (a *Axes) push(v mgl32.Vec3) {
	a.Vectors[a.Count] = v
	a.Count++
}

// CandidateAxes returns the normalized separating axis candidates for a and b:
// A's axes, B's axes, then every non-degenerate cross product in (A_i, B_j) order.
func CandidateAxes(a, b *actor.Collider) Axes {
	var axes Axes

	axesA := a.Axes()
	axesB := b.Axes()

	for _, axis := range axesA {
		axes.push(axis)
	}
	for _, axis := range axesB {
		axes.push(axis)
	}

	for _, u := range axesA {
		for _, v := range axesB {
			cross := u.Cross(v)
			if cross.LenSqr() < ParallelEpsilon {
				continue
			}
			axes.push(cross.Normalize())
		}
	}

	return axes
}

// Overlap returns the length of the intersection of [minA, maxA] and [minB, maxB].
// Disjoint or touching intervals give 0.
func Overlap(minA, maxA, minB, maxB float32) float32 {
	return math32.Max(math32.Min(maxA, maxB)-math32.Max(minA, minB), 0)
}

// Collide tests two box colliders.
// It returns false as soon as one axis separates them. Otherwise the result holds
// the axis of minimum overlap. On an exact tie the first axis in candidate order wins.
func Collide(a, b *actor.Collider) (Result, bool) {
	axes := CandidateAxes(a, b)

	minOverlap := math32.Inf(1)
	best := -1

	for i := 0; i < axes.Count; i++ {
		axis := axes.Vectors[i].Normalize()

		minA, maxA := a.Project(axis)
		minB, maxB := b.Project(axis)

		overlap := Overlap(minA, maxA, minB, maxB)
		if overlap <= 0 {
			return Result{}, false
		}

		if overlap < minOverlap {
			minOverlap = overlap
			best = i
		}
	}

	if best < 0 {
		return Result{}, false
	}

	normal := axes.Vectors[best].Normalize()
	// Orient the normal from A toward B, left as is when the offset gives no direction
	if b.Center().Sub(a.Center()).Dot(normal) < 0 {
		normal = normal.Mul(-1)
	}

	return Result{
		Normal:      normal,
		Penetration: minOverlap,
		Axis:        best,
	}, true
}

// Intersects reports whether the two boxes overlap
func Intersects(a, b *actor.Collider) bool {
	_, ok := Collide(a, b)
	return ok
}
