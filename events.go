package zphy

import (
	"bytes"
	"sort"

	"github.com/zphy/zphy/actor"
	"github.com/zphy/zphy/constraint"
)

const (
	COLLISION_ENTER EventType = iota
	COLLISION_STAY
	COLLISION_EXIT
)

type pairKey struct {
	bodyA *actor.RigidBody
	bodyB *actor.RigidBody
}

// makePairKey creates a pair key ordered by body ID, so (A,B) and (B,A) match
func makePairKey(bodyA, bodyB *actor.RigidBody) pairKey {
	if bytes.Compare(bodyB.ID[:], bodyA.ID[:]) < 0 {
		bodyA, bodyB = bodyB, bodyA
	}

	return pairKey{bodyA: bodyA, bodyB: bodyB}
}

type EventType uint8

func (t EventType) String() string {
	switch t {
	case COLLISION_ENTER:
		return "collision_enter"
	case COLLISION_STAY:
		return "collision_stay"
	case COLLISION_EXIT:
		return "collision_exit"
	default:
		return "unknown"
	}
}

// Event interface - all events implement this
type Event interface {
	Type() EventType
}

type CollisionEnterEvent struct {
	BodyA *actor.RigidBody
	BodyB *actor.RigidBody
}

func (e CollisionEnterEvent) Type() EventType { return COLLISION_ENTER }

type CollisionStayEvent struct {
	BodyA *actor.RigidBody
	BodyB *actor.RigidBody
}

func (e CollisionStayEvent) Type() EventType { return COLLISION_STAY }

type CollisionExitEvent struct {
	BodyA *actor.RigidBody
	BodyB *actor.RigidBody
}

func (e CollisionExitEvent) Type() EventType { return COLLISION_EXIT }

// EventListener - callback for events
type EventListener func(event Event)

// Events dispatches collision events once per World.Step
type Events struct {
	listeners map[EventType][]EventListener

	buffer []Event

	// Pairs touching during the previous and the current step
	previousActivePairs map[pairKey]bool
	currentActivePairs  map[pairKey]bool
}

func NewEvents() Events {
	return Events{
		listeners:           make(map[EventType][]EventListener),
		buffer:              make([]Event, 0, 64),
		previousActivePairs: make(map[pairKey]bool),
		currentActivePairs:  make(map[pairKey]bool),
	}
}

// Subscribe adds a listener for an event type
func (e *Events) Subscribe(eventType EventType, listener EventListener) {
	if e.listeners == nil {
		*e = NewEvents()
	}
	e.listeners[eventType] = append(e.listeners[eventType], listener)
}

// recordCollisions marks the pairs of the found contacts as active for this step
func (e *Events) recordCollisions(bodies []*actor.RigidBody, contacts []*constraint.ContactConstraint) {
	for _, c := range contacts {
		e.currentActivePairs[makePairKey(bodies[c.IndexA], bodies[c.IndexB])] = true
	}
}

// forget drops every pair that involves body
func (e *Events) forget(body *actor.RigidBody) {
	for pair := range e.previousActivePairs {
		if pair.bodyA == body || pair.bodyB == body {
			delete(e.previousActivePairs, pair)
		}
	}
	for pair := range e.currentActivePairs {
		if pair.bodyA == body || pair.bodyB == body {
			delete(e.currentActivePairs, pair)
		}
	}
}

// processCollisionEvents compares current and previous pairs to detect Enter/Stay/Exit.
// Events are buffered in pair ID order: enter and stay first, then exit.
func (e *Events) processCollisionEvents() {
	for _, pair := range sortedPairs(e.currentActivePairs) {
		if e.previousActivePairs[pair] {
			e.buffer = append(e.buffer, CollisionStayEvent{BodyA: pair.bodyA, BodyB: pair.bodyB})
		} else {
			e.buffer = append(e.buffer, CollisionEnterEvent{BodyA: pair.bodyA, BodyB: pair.bodyB})
		}
	}

	for _, pair := range sortedPairs(e.previousActivePairs) {
		if !e.currentActivePairs[pair] {
			e.buffer = append(e.buffer, CollisionExitEvent{BodyA: pair.bodyA, BodyB: pair.bodyB})
		}
	}

	// Swap for next frame and clear current
	e.previousActivePairs, e.currentActivePairs = e.currentActivePairs, e.previousActivePairs
	clear(e.currentActivePairs)
}

func sortedPairs(set map[pairKey]bool) []pairKey {
	pairs := make([]pairKey, 0, len(set))
	for pair := range set {
		pairs = append(pairs, pair)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if c := bytes.Compare(pairs[i].bodyA.ID[:], pairs[j].bodyA.ID[:]); c != 0 {
			return c < 0
		}
		return bytes.Compare(pairs[i].bodyB.ID[:], pairs[j].bodyB.ID[:]) < 0
	})
	return pairs
}

// flush sends all buffered events and clears the buffer
func (e *Events) flush() {
	e.processCollisionEvents()

	for _, event := range e.buffer {
		for _, listener := range e.listeners[event.Type()] {
			listener(event)
		}
	}
	e.buffer = e.buffer[:0]
}
