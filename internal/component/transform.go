// Package component holds the concrete component kinds the studio ships
// with. Components are pure data; Clone returns a value-independent copy.
package component

import (
	"github.com/orbitforge/studio/internal/core/ecs"
	"github.com/orbitforge/studio/internal/math3"
)

// Type tags. Stable strings; renderers and queries key on these.
const (
	TypeTransform     = "Transform"
	TypeRigidBody     = "RigidBody"
	TypeCelestialBody = "CelestialBody"
	TypeOrbit         = "Orbit"
	TypeScript        = "Script"
)

// Transform is the world-space pose of an entity.
type Transform struct {
	Position math3.Vec3
	Rotation math3.Quat
	Scale    math3.Vec3
}

func NewTransform() *Transform {
	return &Transform{
		Rotation: math3.IdentityQuat(),
		Scale:    math3.One(),
	}
}

func (t *Transform) Type() string { return TypeTransform }

func (t *Transform) Clone() ecs.Component {
	c := *t
	return &c
}
