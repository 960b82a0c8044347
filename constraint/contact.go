package constraint

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/zphy/zphy/actor"
)

const (
	// separatingVelocity is the normal relative speed above which bodies are moving apart
	separatingVelocity = 0

	// minTangentSpeed is the tangential speed under which friction is skipped
	minTangentSpeed = 1e-6
)

// ContactConstraint is a contact between two bodies found during one step.
// It is discarded at the end of the step.
type ContactConstraint struct {
	// Indices of the bodies in the slice being stepped
	IndexA int
	IndexB int

	// Normal is a unit vector pointing from body A toward body B
	Normal      mgl32.Vec3
	Penetration float32

	// PointA and PointB are the box centers at detection time, not true
	// contact points. Their lever arms are zero, so impulses through them
	// change no angular velocity.
	PointA mgl32.Vec3
	PointB mgl32.Vec3

	// Velocities at detection time, read instead of the live ones so the
	// result does not depend on which body is written first
	VelocityA actor.Velocity
	VelocityB actor.Velocity

	// Combined coefficients of the pair, Friction = 0 disables friction
	Restitution float32
	Friction    float32
}

// Solve resolves the contact: it removes the penetration, then applies the
// normal impulse and friction. Pairs with no effective inverse mass are left untouched.
func (c *ContactConstraint) Solve(bodyA, bodyB *actor.RigidBody) {
	invMassA := bodyA.EffectiveInverseMass()
	invMassB := bodyB.EffectiveInverseMass()
	if invMassA+invMassB == 0 {
		return
	}

	c.SolvePosition(bodyA, bodyB)
	c.SolveVelocity(bodyA, bodyB)

	// A is pushed along -Normal, B along +Normal
	if invMassA > 0 {
		bodyA.MarkGrounded(c.Normal.Mul(-1))
	}
	if invMassB > 0 {
		bodyB.MarkGrounded(c.Normal)
	}
}

// SolvePosition moves both bodies apart along the normal, each by its share of inverse mass
func (c *ContactConstraint) SolvePosition(bodyA, bodyB *actor.RigidBody) {
	invMassA := bodyA.EffectiveInverseMass()
	invMassB := bodyB.EffectiveInverseMass()
	totalInvMass := invMassA + invMassB
	if totalInvMass == 0 || c.Penetration <= 0 {
		return
	}

	correction := c.Normal.Mul(c.Penetration / totalInvMass)

	// The contact points travel with their bodies
	if invMassA > 0 {
		offset := correction.Mul(-invMassA)
		bodyA.Translate(offset)
		c.PointA = c.PointA.Add(offset)
	}
	if invMassB > 0 {
		offset := correction.Mul(invMassB)
		bodyB.Translate(offset)
		c.PointB = c.PointB.Add(offset)
	}
}

// SolveVelocity applies the restitution impulse along the normal, then friction.
// Nothing happens when the bodies were already separating.
func (c *ContactConstraint) SolveVelocity(bodyA, bodyB *actor.RigidBody) {
	invMassA := bodyA.EffectiveInverseMass()
	invMassB := bodyB.EffectiveInverseMass()
	totalInvMass := invMassA + invMassB
	if totalInvMass == 0 {
		return
	}

	relativeVel := c.VelocityB.Linear.Sub(c.VelocityA.Linear)
	normalVel := relativeVel.Dot(c.Normal)
	if normalVel > separatingVelocity {
		return
	}

	rA := c.PointA.Sub(bodyA.Transform.Position)
	rB := c.PointB.Sub(bodyB.Transform.Position)

	// ========== NORMAL IMPULSE ==========
	lambdaNormal := -(1 + c.Restitution) * normalVel / totalInvMass
	normalImpulse := c.Normal.Mul(lambdaNormal)

	bodyA.ApplyImpulse(normalImpulse.Mul(-1), rA)
	bodyB.ApplyImpulse(normalImpulse, rB)

	// ========== FRICTION ==========
	if c.Friction <= 0 || lambdaNormal <= 0 {
		return
	}

	tangentVel := relativeVel.Sub(c.Normal.Mul(normalVel))
	tangentSpeed := tangentVel.Len()
	if tangentSpeed < minTangentSpeed {
		return
	}
	tangentDir := tangentVel.Mul(1.0 / tangentSpeed)

	// Coulomb: |friction| <= mu * |normal impulse|, never more than stops the sliding
	lambdaTangent := tangentSpeed / totalInvMass
	if maxFriction := c.Friction * lambdaNormal; lambdaTangent > maxFriction {
		lambdaTangent = maxFriction
	}
	frictionImpulse := tangentDir.Mul(lambdaTangent)

	bodyA.ApplyImpulse(frictionImpulse, rA)
	bodyB.ApplyImpulse(frictionImpulse.Mul(-1), rB)
}
