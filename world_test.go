package zphy

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zphy/zphy/actor"
	"github.com/zphy/zphy/constraint"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const testDt = float32(1.0 / 60.0)

func newTestBox(t testing.TB, center, velocity mgl32.Vec3) *actor.RigidBody {
	t.Helper()
	c, err := actor.NewCuboid(mgl32.Vec3{0.5, 0.5, 0.5}, center, mgl32.QuatIdent())
	require.NoError(t, err)
	rb, err := actor.NewDynamic(1, c, 0.5, velocity, mgl32.Vec3{}, mgl32.Vec3{}, actor.Damping{}, 0)
	require.NoError(t, err)
	return rb
}

// newTestFloor is a static slab whose top face is at y = 0
func newTestFloor(t testing.TB) *actor.RigidBody {
	t.Helper()
	c, err := actor.NewCuboid(mgl32.Vec3{10, 0.5, 10}, mgl32.Vec3{0, -0.5, 0}, mgl32.QuatIdent())
	require.NoError(t, err)
	rb, err := actor.NewStatic(c)
	require.NoError(t, err)
	rb.Friction = 0.5
	return rb
}

func newTestWorld(t testing.TB, cfg Config, opts ...Option) *World {
	t.Helper()
	w, err := NewWorld(cfg, opts...)
	require.NoError(t, err)
	return w
}

func zeroGravity() Config {
	cfg := DefaultConfig()
	cfg.Gravity = []float32{0, 0, 0}
	return cfg
}

func countingResolver(calls *int) ContactResolver {
	return ResolverFunc(func(bodyA, bodyB *actor.RigidBody, contact *constraint.ContactConstraint) {
		*calls++
		ImpulseResolver.Resolve(bodyA, bodyB, contact)
	})
}

func TestNewWorld(t *testing.T) {
	w := newTestWorld(t, DefaultConfig())

	assert.Equal(t, DefaultGravity, w.Gravity)
	assert.Equal(t, DEFAULT_SUBSTEPS, w.Substeps)
	assert.Equal(t, DEFAULT_WORKERS, w.Workers)
	assert.NotNil(t, w.SpatialGrid)
	assert.True(t, w.Friction)
	assert.Empty(t, w.Bodies)

	cfg := DefaultConfig()
	cfg.CellSize = 0
	w = newTestWorld(t, cfg)
	assert.Nil(t, w.SpatialGrid, "cell_size 0 tests all pairs")
}

func TestNewWorld_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Substeps = 0

	w, err := NewWorld(cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Nil(t, w)
}

func TestNewWorld_Logger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	w := newTestWorld(t, DefaultConfig(), WithLogger(zap.New(core)))

	w.AddBody(newTestBox(t, mgl32.Vec3{}, mgl32.Vec3{}))
	w.Step(testDt)
	w.Step(0)

	assert.Equal(t, 1, logs.FilterMessage("world created").Len())
	assert.Equal(t, 1, logs.FilterMessage("body added").Len())
	assert.Equal(t, 1, logs.FilterMessage("substep").Len())
	assert.Equal(t, 1, logs.FilterMessage("step ignored").FilterLevelExact(zap.WarnLevel).Len())
}

func TestWorld_AddRemoveBody(t *testing.T) {
	w := newTestWorld(t, DefaultConfig())
	a := newTestBox(t, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{})
	b := newTestBox(t, mgl32.Vec3{5, 0, 0}, mgl32.Vec3{})

	w.AddBody(a)
	w.AddBody(b)
	require.Len(t, w.Bodies, 2)

	assert.True(t, w.RemoveBody(a))
	assert.Equal(t, []*actor.RigidBody{b}, w.Bodies)
	assert.False(t, w.RemoveBody(a), "already removed")
}

func TestStep_BoxSettlesOnFloor(t *testing.T) {
	w := newTestWorld(t, DefaultConfig())
	floor := newTestFloor(t)
	box := newTestBox(t, mgl32.Vec3{0, 2, 0}, mgl32.Vec3{})
	w.AddBody(floor)
	w.AddBody(box)

	for i := 0; i < 300; i++ {
		w.Step(testDt)
	}

	assert.InDelta(t, 0.5, box.Transform.Position.Y(), 0.01, "box should rest on the floor")
	assert.InDelta(t, 0, box.Transform.Position.X(), 1e-5)
	assert.InDelta(t, 0, box.Transform.Position.Z(), 1e-5)
	assert.InDelta(t, 0, box.Velocity.Linear.Y(), 1e-4)
	assert.True(t, box.Grounded)
	assert.False(t, floor.Grounded)
}

func TestStep_StaticBodiesUntouched(t *testing.T) {
	w := newTestWorld(t, DefaultConfig())
	floor := newTestFloor(t)
	w.AddBody(floor)
	for i := 0; i < 5; i++ {
		w.AddBody(newTestBox(t, mgl32.Vec3{float32(i) - 2, 0.4 + float32(i)*0.3, 0}, mgl32.Vec3{0, -3, 0}))
	}

	transform := floor.Transform
	velocity := floor.Velocity
	vertices := floor.Collider.Vertices()

	for i := 0; i < 120; i++ {
		w.Step(testDt)
	}

	assert.Equal(t, transform, floor.Transform)
	assert.Equal(t, velocity, floor.Velocity)
	assert.Equal(t, vertices, floor.Collider.Vertices())
}

func TestStep_NoOverlapNeverResolves(t *testing.T) {
	for _, cellSize := range []float32{0, 2} {
		cfg := DefaultConfig()
		cfg.CellSize = cellSize

		calls := 0
		w := newTestWorld(t, cfg, WithResolver(countingResolver(&calls)))
		w.AddBody(newTestFloor(t))
		w.AddBody(newTestBox(t, mgl32.Vec3{0, 50, 0}, mgl32.Vec3{}))
		w.AddBody(newTestBox(t, mgl32.Vec3{3, 50, 0}, mgl32.Vec3{}))

		for i := 0; i < 60; i++ {
			w.Step(testDt)
		}

		assert.Zero(t, calls, "cell size %v", cellSize)
	}
}

func TestStep_ResolverCalledForOverlap(t *testing.T) {
	calls := 0
	w := newTestWorld(t, DefaultConfig(), WithResolver(countingResolver(&calls)))
	w.AddBody(newTestFloor(t))
	w.AddBody(newTestBox(t, mgl32.Vec3{0, 0.4, 0}, mgl32.Vec3{}))

	w.Step(testDt)

	assert.Equal(t, 1, calls)
}

func TestStep_InvalidDtIgnored(t *testing.T) {
	w := newTestWorld(t, DefaultConfig())
	w.AddBody(newTestFloor(t))
	w.AddBody(newTestBox(t, mgl32.Vec3{0, 3, 0}, mgl32.Vec3{1, 0, 0}))
	before := w.Checksum()

	for _, dt := range []float32{0, -testDt, math32.NaN(), math32.Inf(1), math32.Inf(-1)} {
		w.Step(dt)
		assert.Equal(t, before, w.Checksum(), "dt %v", dt)
	}
}

func TestStep_ElasticHeadOn(t *testing.T) {
	w := newTestWorld(t, zeroGravity())
	a := newTestBox(t, mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{1, 0, 0})
	b := newTestBox(t, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{-1, 0, 0})
	a.Restitution, b.Restitution = 1, 1
	w.AddBody(a)
	w.AddBody(b)

	for i := 0; i < 20; i++ {
		w.Step(0.1)
	}

	assert.InDelta(t, -1, a.Velocity.Linear.X(), 1e-5)
	assert.InDelta(t, 1, b.Velocity.Linear.X(), 1e-5)
	assert.Less(t, a.Transform.Position.X(), b.Transform.Position.X())
}

func TestStep_KinematicPushesDynamic(t *testing.T) {
	w := newTestWorld(t, zeroGravity())

	c, err := actor.NewCuboid(mgl32.Vec3{0.5, 0.5, 0.5}, mgl32.Vec3{-1, 0, 0}, mgl32.QuatIdent())
	require.NoError(t, err)
	pusher, err := actor.NewKinematic(1, c)
	require.NoError(t, err)
	pusher.Velocity.Linear = mgl32.Vec3{1, 0, 0}

	box := newTestBox(t, mgl32.Vec3{0.05, 0, 0}, mgl32.Vec3{})
	w.AddBody(pusher)
	w.AddBody(box)

	for i := 0; i < 30; i++ {
		w.Step(0.1)
	}

	assert.Equal(t, mgl32.Vec3{1, 0, 0}, pusher.Velocity.Linear, "kinematic velocity is never changed")
	assert.InDelta(t, 2, pusher.Transform.Position.X(), 1e-4)
	assert.GreaterOrEqual(t, box.Transform.Position.X()-pusher.Transform.Position.X(), float32(1-1e-4))
}

func TestStep_Substeps(t *testing.T) {
	cfg := zeroGravity()
	cfg.Substeps = 4
	w := newTestWorld(t, cfg)
	box := newTestBox(t, mgl32.Vec3{}, mgl32.Vec3{2, 0, 0})
	w.AddBody(box)

	w.Step(0.5)

	assert.InDelta(t, 1, box.Transform.Position.X(), 1e-6)
}

func TestStep_PackageFunction(t *testing.T) {
	floor := newTestFloor(t)
	box := newTestBox(t, mgl32.Vec3{0, 0.45, 0}, mgl32.Vec3{0, -1, 0})
	bodies := []*actor.RigidBody{floor, box}

	Step(bodies, testDt, mgl32.Vec3{0, -9.81, 0})

	assert.InDelta(t, 0.5, box.Transform.Position.Y(), 1e-5)
	assert.InDelta(t, 0, box.Velocity.Linear.Y(), 1e-5)
	assert.True(t, box.Grounded)
}

func randomScene(t testing.TB, seed int64, n int) []*actor.RigidBody {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	bodies := []*actor.RigidBody{newTestFloor(t)}

	for i := 0; i < n; i++ {
		center := mgl32.Vec3{rng.Float32()*8 - 4, rng.Float32() * 4, rng.Float32()*8 - 4}
		axis := mgl32.Vec3{rng.Float32() - 0.5, rng.Float32() - 0.5, rng.Float32() + 0.1}.Normalize()
		rot := mgl32.QuatRotate(rng.Float32()*math32.Pi, axis)
		half := mgl32.Vec3{0.2 + rng.Float32()*0.5, 0.2 + rng.Float32()*0.5, 0.2 + rng.Float32()*0.5}

		c, err := actor.NewCuboid(half, center, rot)
		require.NoError(t, err)
		rb, err := actor.NewDynamic(0.5+rng.Float32()*2, c, rng.Float32(), mgl32.Vec3{}, mgl32.Vec3{}, mgl32.Vec3{}, actor.Damping{Linear: 0.01, Angular: 0.05}, rng.Float32())
		require.NoError(t, err)
		bodies = append(bodies, rb)
	}
	return bodies
}

func TestStep_Deterministic(t *testing.T) {
	run := func(workers int, cellSize float32) uint64 {
		cfg := DefaultConfig()
		cfg.Workers = workers
		cfg.CellSize = cellSize
		w := newTestWorld(t, cfg)
		for _, b := range randomScene(t, 42, 40) {
			w.AddBody(b)
		}
		for i := 0; i < 120; i++ {
			w.Step(testDt)
		}
		return w.Checksum()
	}

	reference := run(1, 2)
	assert.Equal(t, reference, run(1, 2), "same inputs")
	assert.Equal(t, reference, run(4, 2), "parallel workers")
	assert.Equal(t, reference, run(4, 0), "all pairs broad phase")
}

func TestChecksum_ChangesWithState(t *testing.T) {
	w := newTestWorld(t, DefaultConfig())
	w.AddBody(newTestBox(t, mgl32.Vec3{0, 3, 0}, mgl32.Vec3{}))
	before := w.Checksum()

	w.Step(testDt)

	assert.NotEqual(t, before, w.Checksum())
}

func BenchmarkWorld_Step(b *testing.B) {
	for _, workers := range []int{1, 4} {
		cfg := DefaultConfig()
		cfg.Workers = workers
		w := newTestWorld(b, cfg)
		for _, body := range randomScene(b, 7, 200) {
			w.AddBody(body)
		}

		b.Run(fmt.Sprintf("workers=%d", workers), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				w.Step(testDt)
			}
		})
	}
}
