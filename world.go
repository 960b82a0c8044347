// Package zphy is a small 3-D rigid-body physics core for oriented boxes.
//
// Each World.Step runs a fixed pipeline:
//  1. integrate every body (gravity, damping, torque, pose) and sync its collider
//  2. broad phase: candidate pairs, from a spatial grid or all pairs
//  3. narrow phase: Separating Axis Theorem on each candidate pair
//  4. resolve each contact in pair order: positional correction, then impulse
//
// No contact state survives a step, only the pair bookkeeping used for events.
package zphy

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/zphy/zphy/actor"
	"github.com/zphy/zphy/constraint"
	"go.uber.org/zap"
)

// ContactResolver applies a contact to the two bodies it references
type ContactResolver interface {
	Resolve(bodyA, bodyB *actor.RigidBody, contact *constraint.ContactConstraint)
}

// ResolverFunc adapts a function to ContactResolver
type ResolverFunc func(bodyA, bodyB *actor.RigidBody, contact *constraint.ContactConstraint)

func (f ResolverFunc) Resolve(bodyA, bodyB *actor.RigidBody, contact *constraint.ContactConstraint) {
	f(bodyA, bodyB, contact)
}

// ImpulseResolver solves contacts with positional correction and a restitution impulse
var ImpulseResolver = ResolverFunc(func(bodyA, bodyB *actor.RigidBody, contact *constraint.ContactConstraint) {
	contact.Solve(bodyA, bodyB)
})

type World struct {
	// List of all rigid bodies in the world
	Bodies []*actor.RigidBody
	// Gravity acceleration (m/s², or N/kg)
	Gravity     mgl32.Vec3
	Substeps    int
	SpatialGrid *SpatialGrid
	Workers     int
	Friction    bool

	Resolver ContactResolver
	Events   Events

	logger *zap.Logger
}

// Option customizes a World
type Option func(*World)

// WithLogger sets the logger, the default discards everything
func WithLogger(logger *zap.Logger) Option {
	return func(w *World) {
		w.logger = logger
	}
}

// WithResolver replaces the contact resolver
func WithResolver(resolver ContactResolver) Option {
	return func(w *World) {
		w.Resolver = resolver
	}
}

// NewWorld creates an empty world from a validated config
func NewWorld(cfg Config, opts ...Option) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	w := &World{
		Gravity:  cfg.GravityVec(),
		Substeps: cfg.Substeps,
		Workers:  cfg.Workers,
		Friction: cfg.Friction,
		Resolver: ImpulseResolver,
		Events:   NewEvents(),
		logger:   zap.NewNop(),
	}
	if cfg.CellSize > 0 {
		w.SpatialGrid = NewSpatialGrid(cfg.CellSize, cfg.Cells)
	}

	for _, opt := range opts {
		opt(w)
	}

	w.logger.Debug("world created",
		zap.Float32s("gravity", w.Gravity[:]),
		zap.Int("substeps", w.Substeps),
		zap.Int("workers", w.Workers),
		zap.Bool("spatial_grid", w.SpatialGrid != nil),
		zap.Bool("friction", w.Friction),
	)

	return w, nil
}

// AddBody adds a rigid body to the world
func (w *World) AddBody(body *actor.RigidBody) {
	w.Bodies = append(w.Bodies, body)

	w.log().Debug("body added",
		zap.Stringer("id", body.ID),
		zap.Stringer("kind", body.Kind),
		zap.Int("count", len(w.Bodies)),
	)
}

// RemoveBody removes a rigid body from the world, reporting whether it was found
func (w *World) RemoveBody(body *actor.RigidBody) bool {
	k := -1
	for i, b := range w.Bodies {
		if b == body {
			k = i
			break
		}
	}

	if k == -1 {
		return false
	}

	w.Bodies = append(w.Bodies[:k], w.Bodies[k+1:]...)
	w.Events.forget(body)

	w.log().Debug("body removed", zap.Stringer("id", body.ID), zap.Int("count", len(w.Bodies)))
	return true
}

// Step advances the world by dt seconds. Non-positive or non-finite dt is ignored.
func (w *World) Step(dt float32) {
	if !(dt > 0) || math32.IsInf(dt, 1) {
		w.log().Warn("step ignored", zap.Float32("dt", dt))
		return
	}

	if w.Events.currentActivePairs == nil {
		w.Events = NewEvents()
	}

	substeps := max(DEFAULT_SUBSTEPS, w.Substeps)
	workers := max(DEFAULT_WORKERS, w.Workers)
	h := dt / float32(substeps)

	for i := 0; i < substeps; i++ {
		w.integrate(h, workers)

		pairs := BroadPhase(w.SpatialGrid, w.Bodies)
		contacts := NarrowPhase(w.Bodies, pairs, workers, w.Friction)

		w.Events.recordCollisions(w.Bodies, contacts)

		// Sequential: two contacts may share a body
		w.resolve(contacts)

		w.log().Debug("substep",
			zap.Float32("h", h),
			zap.Int("bodies", len(w.Bodies)),
			zap.Int("pairs", len(pairs)),
			zap.Int("contacts", len(contacts)),
		)
	}

	w.Events.flush()
}

func (w *World) log() *zap.Logger {
	if w.logger == nil {
		w.logger = zap.NewNop()
	}
	return w.logger
}

func (w *World) integrate(h float32, workers int) {
	task(workers, w.Bodies, func(_ int, body *actor.RigidBody) {
		body.Integrate(h, w.Gravity)
	})
}

func (w *World) resolve(contacts []*constraint.ContactConstraint) {
	resolver := w.Resolver
	if resolver == nil {
		resolver = ImpulseResolver
	}

	for _, c := range contacts {
		resolver.Resolve(w.Bodies[c.IndexA], w.Bodies[c.IndexB], c)
	}
}

// Step advances bodies by dt once, with every pair tested, the impulse
// resolver, no friction and no events
func Step(bodies []*actor.RigidBody, dt float32, gravity mgl32.Vec3) {
	w := World{
		Bodies:  bodies,
		Gravity: gravity,
	}
	w.Step(dt)
}
