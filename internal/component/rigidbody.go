package component

import (
	"github.com/orbitforge/studio/internal/core/ecs"
	"github.com/orbitforge/studio/internal/physics"
)

// RigidBodyRef bridges an entity to its physics-backend body. It is the
// only link between ECS state and solver state; the physics sync system
// copies the body transform back into the entity's Transform each tick.
type RigidBodyRef struct {
	Handle physics.BodyHandle
}

func (r *RigidBodyRef) Type() string { return TypeRigidBody }

func (r *RigidBodyRef) Clone() ecs.Component {
	c := *r
	return &c
}
