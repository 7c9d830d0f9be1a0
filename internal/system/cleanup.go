package system

import (
	"errors"
	"fmt"
	"time"

	"github.com/orbitforge/studio/internal/component"
	"github.com/orbitforge/studio/internal/core/ecs"
	"github.com/orbitforge/studio/internal/core/event"
	"github.com/orbitforge/studio/internal/physics"
)

// CleanupSystem flushes the deferred entity destruction queue at tick end
// and announces each destruction on the event bus. Entities holding a
// RigidBodyRef have their backend body released first, while the component
// is still attached. Register it last.
type CleanupSystem struct {
	world  *ecs.World
	engine physics.Engine
	bus    *event.Bus
}

func NewCleanupSystem(world *ecs.World, engine physics.Engine, bus *event.Bus) *CleanupSystem {
	return &CleanupSystem{world: world, engine: engine, bus: bus}
}

func (s *CleanupSystem) Name() string { return "cleanup" }

func (s *CleanupSystem) Update(_ time.Duration) error {
	var failures []error
	for _, id := range s.world.PendingDestruction() {
		c, ok := s.world.GetComponent(id, component.TypeRigidBody)
		if !ok || s.engine == nil {
			continue
		}
		ref := c.(*component.RigidBodyRef)
		if err := s.engine.RemoveRigidBody(ref.Handle); err != nil {
			failures = append(failures, fmt.Errorf("entity %d: release body %d: %w", id, ref.Handle, err))
			continue
		}
		if s.bus != nil {
			event.Emit(s.bus, event.BodyRemoved{EntityID: id})
		}
	}
	for _, id := range s.world.FlushDestroyQueue() {
		if s.bus != nil {
			event.Emit(s.bus, event.EntityDestroyed{EntityID: id})
		}
	}
	return errors.Join(failures...)
}
