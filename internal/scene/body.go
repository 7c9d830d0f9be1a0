package scene

import (
	"fmt"

	"github.com/orbitforge/studio/internal/component"
	"github.com/orbitforge/studio/internal/core/ecs"
	"github.com/orbitforge/studio/internal/physics"
)

// AttachBodies creates a physics body for every entity declared with a
// rigid_body block and attaches the RigidBodyRef bridge component. ids
// must be the slice returned by Instantiate for this manifest.
func (m *Manifest) AttachBodies(w *ecs.World, ids []ecs.EntityID, eng physics.Engine) error {
	if len(ids) != len(m.Entities) {
		return fmt.Errorf("attach bodies: %d ids for %d entities", len(ids), len(m.Entities))
	}
	for i, def := range m.Entities {
		if def.RigidBody == nil {
			continue
		}
		id := ids[i]
		tc, ok := w.GetComponent(id, component.TypeTransform)
		if !ok {
			return fmt.Errorf("entity %q: rigid body without transform", def.Name)
		}
		tf := tc.(*component.Transform)

		cfg := physics.BodyConfig{
			Position:  tf.Position,
			Rotation:  tf.Rotation,
			Mass:      def.RigidBody.Mass,
			Kinematic: def.RigidBody.Kinematic,
		}
		if def.RigidBody.Velocity != nil {
			if len(def.RigidBody.Velocity) != 3 {
				return fmt.Errorf("entity %q: velocity needs 3 elements", def.Name)
			}
			cfg.Velocity = vec3(def.RigidBody.Velocity)
		}
		h, err := eng.CreateRigidBody(cfg)
		if err != nil {
			return fmt.Errorf("entity %q: create body: %w", def.Name, err)
		}
		if err := w.AddComponent(id, &component.RigidBodyRef{Handle: h}); err != nil {
			return fmt.Errorf("entity %q: %w", def.Name, err)
		}
	}
	return nil
}
