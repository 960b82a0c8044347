package actor

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// BodyKind represents how a rigid body takes part in the simulation
type BodyKind int

const (
	// BodyKindStatic bodies never move and have zero inverse mass
	// (ground, walls)
	BodyKindStatic BodyKind = iota

	// BodyKindDynamic bodies receive gravity, damping, torque and contact impulses
	BodyKindDynamic

	// BodyKindKinematic bodies move with their own velocity but ignore forces.
	// They keep their mass for bookkeeping only.
	BodyKindKinematic
)

func (k BodyKind) String() string {
	switch k {
	case BodyKindStatic:
		return "static"
	case BodyKindDynamic:
		return "dynamic"
	case BodyKindKinematic:
		return "kinematic"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// BodyState is reserved for sleeping support. Bodies are always simulated as awake.
type BodyState int

const (
	BodyStateAwake BodyState = iota
	BodyStateAsleep
)

// AngularDeadZone is the angular speed (rad/s) under which orientation is not integrated
const AngularDeadZone = 0.01

// groundedThreshold is the minimum upward component of a separation direction
// for a contact to count as ground support
const groundedThreshold = 0.7

// Velocity is a world-space linear (m/s) and angular (rad/s) velocity pair
type Velocity struct {
	Linear  mgl32.Vec3
	Angular mgl32.Vec3
}

// Damping holds the fraction of velocity removed per step, in [0, 1].
// The decay is (1-damping) per step and therefore depends on the step rate.
type Damping struct {
	Linear  float32
	Angular float32
}

// RigidBody represents a rigid body in the physics simulation
type RigidBody struct {
	ID    uuid.UUID
	Kind  BodyKind
	State BodyState

	Transform Transform
	Velocity  Velocity

	InverseMass         float32
	InverseInertiaLocal mgl32.Mat3

	Friction    float32 // 0 = frictionless
	Restitution float32 // 0 = no rebound, 1 = perfect restitution
	Damping     Damping

	// Torque is a constant bias applied every step, it is never consumed
	Torque mgl32.Vec3

	// Grounded is set when a contact pushed the body upward during the last step
	Grounded bool

	Collider *Collider
}

// NewDynamic creates a body affected by gravity, damping, torque and contacts.
// The pose is taken from the collider. Coefficients are clamped to [0, 1];
// NaN or infinite coefficients, velocities and torque are rejected.
func NewDynamic(
	mass float32,
	collider *Collider,
	friction float32,
	linearVelocity, angularVelocity, torque mgl32.Vec3,
	damping Damping,
	restitution float32,
) (*RigidBody, error) {
	for _, v := range [...]float32{friction, restitution, damping.Linear, damping.Angular} {
		if math32.IsNaN(v) || math32.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: friction=%v restitution=%v damping=%+v", ErrNonFiniteParameter, friction, restitution, damping)
		}
	}
	if !finiteVec(linearVelocity) || !finiteVec(angularVelocity) || !finiteVec(torque) {
		return nil, fmt.Errorf("%w: linear=%v angular=%v torque=%v", ErrNonFiniteParameter, linearVelocity, angularVelocity, torque)
	}

	rb, err := newRigidBody(BodyKindDynamic, mass, collider)
	if err != nil {
		return nil, err
	}

	rb.Friction = clamp01(friction)
	rb.Restitution = clamp01(restitution)
	rb.Damping = Damping{Linear: clamp01(damping.Linear), Angular: clamp01(damping.Angular)}
	rb.Velocity = Velocity{Linear: linearVelocity, Angular: angularVelocity}
	rb.Torque = torque

	inertia := collider.ComputeInertia(mass)
	rb.InverseInertiaLocal = inertia.Inv()

	return rb, nil
}

// NewStatic creates an immovable body
func NewStatic(collider *Collider) (*RigidBody, error) {
	return newRigidBody(BodyKindStatic, 0, collider)
}

// NewKinematic creates a body that moves with its velocity and ignores forces
func NewKinematic(mass float32, collider *Collider) (*RigidBody, error) {
	return newRigidBody(BodyKindKinematic, mass, collider)
}

func newRigidBody(kind BodyKind, mass float32, collider *Collider) (*RigidBody, error) {
	if collider == nil {
		return nil, ErrNilCollider
	}
	if collider.Shape != ColliderShapeCuboid {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedShape, collider.Shape)
	}

	rb := &RigidBody{
		ID:    uuid.New(),
		Kind:  kind,
		State: BodyStateAwake,
		Transform: Transform{
			Position: collider.Center(),
			Rotation: collider.Rotation(),
		},
		Collider: collider,
	}

	if kind != BodyKindStatic {
		if !(mass > 0) || math32.IsInf(mass, 1) {
			return nil, fmt.Errorf("%w: %s body with mass %v", ErrNonPositiveMass, kind, mass)
		}
		rb.InverseMass = 1.0 / mass
	}

	return rb, nil
}

// Mass returns the body mass, +Inf for static bodies
func (rb *RigidBody) Mass() float32 {
	if rb.InverseMass == 0 {
		return math32.Inf(1)
	}
	return 1.0 / rb.InverseMass
}

// EffectiveInverseMass is the inverse mass seen by contact resolution.
// Only dynamic bodies can be pushed by contacts.
func (rb *RigidBody) EffectiveInverseMass() float32 {
	if rb.Kind != BodyKindDynamic {
		return 0
	}
	return rb.InverseMass
}

// Integrate advances velocity and pose by dt seconds (semi-implicit Euler)
func (rb *RigidBody) Integrate(dt float32, gravity mgl32.Vec3) {
	rb.Grounded = false

	switch rb.Kind {
	case BodyKindStatic:
		return
	case BodyKindDynamic:
		rb.Velocity.Linear = rb.Velocity.Linear.Mul(1 - rb.Damping.Linear)
		rb.Velocity.Angular = rb.Velocity.Angular.Mul(1 - rb.Damping.Angular)

		rb.Velocity.Linear = rb.Velocity.Linear.Add(gravity.Mul(dt))

		angularAccel := rb.InverseInertiaWorld().Mul3x1(rb.Torque)
		rb.Velocity.Angular = rb.Velocity.Angular.Add(angularAccel.Mul(dt))
	}

	rb.Transform.Position = rb.Transform.Position.Add(rb.Velocity.Linear.Mul(dt))

	speed := rb.Velocity.Angular.Len()
	if speed > AngularDeadZone {
		axis := rb.Velocity.Angular.Mul(1.0 / speed)
		delta := mgl32.QuatRotate(speed*dt, axis)
		rb.Transform.Rotation = delta.Mul(rb.Transform.Rotation).Normalize()
	}

	rb.SyncCollider()
}

// SyncCollider copies the body pose into its collider
func (rb *RigidBody) SyncCollider() {
	rb.Collider.SetPose(rb.Transform.Position, rb.Transform.Rotation)
}

// Translate moves the body and keeps the collider in sync
func (rb *RigidBody) Translate(offset mgl32.Vec3) {
	rb.Transform.Position = rb.Transform.Position.Add(offset)
	rb.SyncCollider()
}

// ApplyImpulse changes the velocity by an impulse applied at lever arm r
// from the center of mass. Bodies with no effective inverse mass are unchanged.
func (rb *RigidBody) ApplyImpulse(impulse, r mgl32.Vec3) {
	invMass := rb.EffectiveInverseMass()
	if invMass == 0 {
		return
	}

	rb.Velocity.Linear = rb.Velocity.Linear.Add(impulse.Mul(invMass))
	rb.Velocity.Angular = rb.Velocity.Angular.Add(rb.InverseInertiaWorld().Mul3x1(r.Cross(impulse)))
}

// MarkGrounded flags the body as supported when pushed along an upward direction
func (rb *RigidBody) MarkGrounded(separation mgl32.Vec3) {
	if separation.Y() > groundedThreshold {
		rb.Grounded = true
	}
}

// InverseInertiaWorld returns R * I_local^-1 * R^T for the current orientation
func (rb *RigidBody) InverseInertiaWorld() mgl32.Mat3 {
	if rb.Kind != BodyKindDynamic {
		return mgl32.Mat3{}
	}

	R := rb.Transform.RotationMatrix()
	return R.Mul3(rb.InverseInertiaLocal).Mul3(R.Transpose())
}

func clamp01(v float32) float32 {
	return mgl32.Clamp(v, 0, 1)
}
