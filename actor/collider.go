package actor

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// ColliderShape tags the geometry of a collider
type ColliderShape int

const (
	// ColliderShapeCuboid is an oriented box, the only shape with geometry
	ColliderShapeCuboid ColliderShape = iota

	// Declared for forward compatibility, no geometry is implemented for these
	ColliderShapeCapsule
	ColliderShapeSphere
	ColliderShapeEllipsoid
)

func (s ColliderShape) String() string {
	switch s {
	case ColliderShapeCuboid:
		return "cuboid"
	case ColliderShapeCapsule:
		return "capsule"
	case ColliderShapeSphere:
		return "sphere"
	case ColliderShapeEllipsoid:
		return "ellipsoid"
	default:
		return fmt.Sprintf("shape(%d)", int(s))
	}
}

// cornerSigns lists the 8 sign combinations of the half extents
var cornerSigns = [8]mgl32.Vec3{
	{-1, -1, -1},
	{-1, -1, +1},
	{-1, +1, -1},
	{-1, +1, +1},
	{+1, -1, -1},
	{+1, -1, +1},
	{+1, +1, -1},
	{+1, +1, +1},
}

// Collider is an oriented box in world space.
// Center and Rotation mirror the owning body's pose; axes, vertices and
// the bounding box are derived from them by SetPose and are never edited directly.
type Collider struct {
	Shape       ColliderShape
	HalfExtents mgl32.Vec3

	center   mgl32.Vec3
	rotation mgl32.Quat
	axes     [3]mgl32.Vec3
	vertices [8]mgl32.Vec3
	aabb     AABB
}

// NewCuboid creates a box collider from its body-space half extents and world pose
func NewCuboid(halfExtents, center mgl32.Vec3, rotation mgl32.Quat) (*Collider, error) {
	for i := 0; i < 3; i++ {
		h := halfExtents[i]
		if !(h > 0) || math32.IsInf(h, 0) {
			return nil, fmt.Errorf("%w: %v", ErrDegenerateExtents, halfExtents)
		}
	}
	if !finiteVec(center) || !finiteQuat(rotation) || rotation.Len() == 0 {
		return nil, fmt.Errorf("%w: center=%v rotation=%v", ErrNonFiniteTransform, center, rotation)
	}

	c := &Collider{
		Shape:       ColliderShapeCuboid,
		HalfExtents: halfExtents,
	}
	c.SetPose(center, rotation.Normalize())

	return c, nil
}

// NewCollider creates a collider of the given shape. Only ColliderShapeCuboid
// has geometry; every other shape is rejected with ErrUnsupportedShape.
func NewCollider(shape ColliderShape, halfExtents, center mgl32.Vec3, rotation mgl32.Quat) (*Collider, error) {
	if shape != ColliderShapeCuboid {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedShape, shape)
	}
	return NewCuboid(halfExtents, center, rotation)
}

// SetPose moves the collider and refreshes every derived cache
func (c *Collider) SetPose(center mgl32.Vec3, rotation mgl32.Quat) {
	c.center = center
	c.rotation = rotation

	c.axes = [3]mgl32.Vec3{
		rotation.Rotate(mgl32.Vec3{1, 0, 0}),
		rotation.Rotate(mgl32.Vec3{0, 1, 0}),
		rotation.Rotate(mgl32.Vec3{0, 0, 1}),
	}

	for i, sign := range cornerSigns {
		offset := mgl32.Vec3{
			sign.X() * c.HalfExtents.X(),
			sign.Y() * c.HalfExtents.Y(),
			sign.Z() * c.HalfExtents.Z(),
		}
		c.vertices[i] = center.Add(rotation.Rotate(offset))
	}

	min := c.vertices[0]
	max := c.vertices[0]
	for _, v := range c.vertices[1:] {
		for k := 0; k < 3; k++ {
			min[k] = math32.Min(min[k], v[k])
			max[k] = math32.Max(max[k], v[k])
		}
	}
	c.aabb = AABB{Min: min, Max: max}
}

// Center returns the world-space center of the box
func (c *Collider) Center() mgl32.Vec3 {
	return c.center
}

// Rotation returns the world-space orientation of the box
func (c *Collider) Rotation() mgl32.Quat {
	return c.rotation
}

// Axes returns the box's local X, Y and Z unit axes in world space
func (c *Collider) Axes() [3]mgl32.Vec3 {
	return c.axes
}

// Vertices returns the 8 world-space corners of the box
func (c *Collider) Vertices() [8]mgl32.Vec3 {
	return c.vertices
}

// AABB returns the world-space bounding box of the vertices
func (c *Collider) AABB() AABB {
	return c.aabb
}

// Project returns the [min, max] interval of the vertices along axis
func (c *Collider) Project(axis mgl32.Vec3) (float32, float32) {
	min := math32.Inf(1)
	max := math32.Inf(-1)

	for _, v := range c.vertices {
		p := axis.Dot(v)
		min = math32.Min(min, p)
		max = math32.Max(max, p)
	}

	return min, max
}

// ComputeInertia returns the local inertia tensor of a solid box of the given mass.
// I = (m/12) * (d1² + d2²) over the full dimensions.
func (c *Collider) ComputeInertia(mass float32) mgl32.Mat3 {
	x := c.HalfExtents.X() * 2
	y := c.HalfExtents.Y() * 2
	z := c.HalfExtents.Z() * 2

	factor := mass / 12.0
	return mgl32.Diag3(mgl32.Vec3{
		factor * (y*y + z*z),
		factor * (x*x + z*z),
		factor * (x*x + y*y),
	})
}

func finiteVec(v mgl32.Vec3) bool {
	for _, f := range v {
		if math32.IsNaN(f) || math32.IsInf(f, 0) {
			return false
		}
	}
	return true
}

func finiteQuat(q mgl32.Quat) bool {
	return finiteVec(q.V) && !math32.IsNaN(q.W) && !math32.IsInf(q.W, 0)
}
