package zphy

import (
	"bytes"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zphy/zphy/actor"
)

type eventLog struct {
	events []Event
}

func (l *eventLog) subscribe(w *World) {
	for _, et := range []EventType{COLLISION_ENTER, COLLISION_STAY, COLLISION_EXIT} {
		w.Events.Subscribe(et, func(e Event) { l.events = append(l.events, e) })
	}
}

func (l *eventLog) types() []EventType {
	types := make([]EventType, 0, len(l.events))
	for _, e := range l.events {
		types = append(types, e.Type())
	}
	return types
}

func (l *eventLog) reset() {
	l.events = l.events[:0]
}

func TestEventType_String(t *testing.T) {
	assert.Equal(t, "collision_enter", COLLISION_ENTER.String())
	assert.Equal(t, "collision_stay", COLLISION_STAY.String())
	assert.Equal(t, "collision_exit", COLLISION_EXIT.String())
	assert.Equal(t, "unknown", EventType(42).String())
}

func TestMakePairKey_Symmetric(t *testing.T) {
	a := newTestBox(t, mgl32.Vec3{}, mgl32.Vec3{})
	b := newTestBox(t, mgl32.Vec3{}, mgl32.Vec3{})

	ab := makePairKey(a, b)
	assert.Equal(t, ab, makePairKey(b, a))
	assert.LessOrEqual(t, bytes.Compare(ab.bodyA.ID[:], ab.bodyB.ID[:]), 0)
}

func TestEvents_EnterStayExit(t *testing.T) {
	w := newTestWorld(t, DefaultConfig())
	floor := newTestFloor(t)
	box := newTestBox(t, mgl32.Vec3{0, 0.45, 0}, mgl32.Vec3{})
	w.AddBody(floor)
	w.AddBody(box)

	var log eventLog
	log.subscribe(w)

	w.Step(testDt)
	require.Equal(t, []EventType{COLLISION_ENTER}, log.types())
	enter := log.events[0].(CollisionEnterEvent)
	assert.ElementsMatch(t, []*actor.RigidBody{floor, box}, []*actor.RigidBody{enter.BodyA, enter.BodyB})

	log.reset()
	w.Step(testDt)
	assert.Equal(t, []EventType{COLLISION_STAY}, log.types())

	log.reset()
	box.Translate(mgl32.Vec3{0, 10, 0})
	w.Step(testDt)
	assert.Equal(t, []EventType{COLLISION_EXIT}, log.types())

	log.reset()
	w.Step(testDt)
	assert.Empty(t, log.events)
}

func TestEvents_RemovedBodyHasNoExit(t *testing.T) {
	w := newTestWorld(t, DefaultConfig())
	floor := newTestFloor(t)
	box := newTestBox(t, mgl32.Vec3{0, 0.45, 0}, mgl32.Vec3{})
	w.AddBody(floor)
	w.AddBody(box)

	var log eventLog
	log.subscribe(w)

	w.Step(testDt)
	require.Len(t, log.events, 1)

	log.reset()
	require.True(t, w.RemoveBody(box))
	w.Step(testDt)
	assert.Empty(t, log.events)
}

func TestEvents_OnlySubscribedTypes(t *testing.T) {
	w := newTestWorld(t, DefaultConfig())
	w.AddBody(newTestFloor(t))
	w.AddBody(newTestBox(t, mgl32.Vec3{0, 0.45, 0}, mgl32.Vec3{}))

	exits := 0
	w.Events.Subscribe(COLLISION_EXIT, func(Event) { exits++ })

	for i := 0; i < 10; i++ {
		w.Step(testDt)
	}
	assert.Zero(t, exits)
}

func TestEvents_ZeroValueWorld(t *testing.T) {
	w := &World{Gravity: DefaultGravity}
	w.AddBody(newTestFloor(t))
	w.AddBody(newTestBox(t, mgl32.Vec3{0, 0.45, 0}, mgl32.Vec3{}))

	entered := 0
	w.Events.Subscribe(COLLISION_ENTER, func(Event) { entered++ })
	w.Step(testDt)

	assert.Equal(t, 1, entered)
}

func pairIDs(t testing.TB, e Event) (a, b *actor.RigidBody) {
	t.Helper()
	switch ev := e.(type) {
	case CollisionEnterEvent:
		return ev.BodyA, ev.BodyB
	case CollisionStayEvent:
		return ev.BodyA, ev.BodyB
	case CollisionExitEvent:
		return ev.BodyA, ev.BodyB
	}
	require.FailNow(t, "unexpected event", "%T", e)
	return nil, nil
}

func assertEventsSortedByID(t testing.TB, events []Event) {
	t.Helper()
	for i := 1; i < len(events); i++ {
		prevA, prevB := pairIDs(t, events[i-1])
		a, b := pairIDs(t, events[i])
		c := bytes.Compare(prevA.ID[:], a.ID[:])
		if c == 0 {
			c = bytes.Compare(prevB.ID[:], b.ID[:])
		}
		assert.Negative(t, c, "event %d is out of ID order", i)
	}
}

func TestEvents_DispatchedInIDOrder(t *testing.T) {
	w := newTestWorld(t, DefaultConfig())
	w.AddBody(newTestFloor(t))
	for i := 0; i < 8; i++ {
		w.AddBody(newTestBox(t, mgl32.Vec3{float32(i)*2 - 7, 0.45, 0}, mgl32.Vec3{}))
	}

	var log eventLog
	log.subscribe(w)

	w.Step(testDt)
	require.Len(t, log.events, 8)
	assertEventsSortedByID(t, log.events)

	entered := make([][2]*actor.RigidBody, 0, len(log.events))
	for _, e := range log.events {
		require.Equal(t, COLLISION_ENTER, e.Type())
		a, b := pairIDs(t, e)
		assert.Negative(t, bytes.Compare(a.ID[:], b.ID[:]), "BodyA must have the smaller ID")
		entered = append(entered, [2]*actor.RigidBody{a, b})
	}

	// The same pairs stay active, so every later step repeats the sequence
	for step := 0; step < 5; step++ {
		log.reset()
		w.Step(testDt)

		stayed := make([][2]*actor.RigidBody, 0, len(log.events))
		for _, e := range log.events {
			require.Equal(t, COLLISION_STAY, e.Type())
			a, b := pairIDs(t, e)
			stayed = append(stayed, [2]*actor.RigidBody{a, b})
		}
		assert.Equal(t, entered, stayed, "step %d", step)
	}
}
