// Package system holds the studio's built-in ECS systems. Registration
// order is the frame order: physics and behavior systems run before the
// render system so each frame renders the state it computed.
package system

import (
	"errors"
	"fmt"
	"time"

	"github.com/orbitforge/studio/internal/component"
	"github.com/orbitforge/studio/internal/core/ecs"
	"github.com/orbitforge/studio/internal/physics"
)

// PhysicsSystem steps the physics engine once per tick, then copies each
// body's transform back into its entity's Transform component so later
// systems (and the renderer) observe post-step state the same frame.
type PhysicsSystem struct {
	world  *ecs.World
	engine physics.Engine
}

func NewPhysicsSystem(world *ecs.World, engine physics.Engine) *PhysicsSystem {
	return &PhysicsSystem{world: world, engine: engine}
}

func (s *PhysicsSystem) Name() string { return "physics" }

func (s *PhysicsSystem) Update(dt time.Duration) error {
	if err := s.engine.Step(dt); err != nil {
		return fmt.Errorf("step: %w", err)
	}

	var failures []error
	for _, id := range s.world.Query(component.TypeRigidBody, component.TypeTransform) {
		ref, ok := s.world.GetComponent(id, component.TypeRigidBody)
		if !ok {
			continue
		}
		tf, ok := s.world.GetComponent(id, component.TypeTransform)
		if !ok {
			continue
		}
		body, err := s.engine.Body(ref.(*component.RigidBodyRef).Handle)
		if err != nil {
			// A stale handle means some system removed the body without
			// detaching the component. Surface it; do not mask the bug.
			failures = append(failures, fmt.Errorf("entity %d: %w", id, err))
			continue
		}
		transform := tf.(*component.Transform)
		transform.Position = body.Position()
		transform.Rotation = body.Rotation()
	}
	return errors.Join(failures...)
}
