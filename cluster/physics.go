package cluster

import "gonum.org/v1/gonum/spatial/r2"

// BodyHandle identifies a body in the external physics engine.
type BodyHandle int

// Contact is one contact point reported by the physics engine.
type Contact struct {
	Normal        r2.Vec
	NormalImpulse float64
}

// Engine is the pluggable external 2D physics library the cluster
// registry drives. Any Box2D-like engine with equivalent contact and
// sleep primitives can implement this; the sustained-compression detector
// (not the engine) carries the fracture semantics.
type Engine interface {
	Step(dt float64)

	CreateBody(outline []r2.Vec, position r2.Vec) BodyHandle
	DestroyBody(h BodyHandle)

	Position(h BodyHandle) r2.Vec
	Rotation(h BodyHandle) float64
	LinearVelocity(h BodyHandle) r2.Vec
	AngularVelocity(h BodyHandle) float64
	Mass(h BodyHandle) float64

	IsSleeping(h BodyHandle) bool
	Sleep(h BodyHandle)

	AddForce(h BodyHandle, f r2.Vec)
	SetLinearVelocity(h BodyHandle, v r2.Vec)
	SetAngularVelocity(h BodyHandle, rad float64)
	SetRotation(h BodyHandle, rad float64)

	GetContacts(h BodyHandle, buf []Contact) int
}
