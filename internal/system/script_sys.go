package system

import (
	"errors"
	"fmt"
	"time"

	"github.com/orbitforge/studio/internal/component"
	"github.com/orbitforge/studio/internal/core/ecs"
	"github.com/orbitforge/studio/internal/math3"
	"github.com/orbitforge/studio/internal/scripting"
)

// ScriptSystem runs Lua behaviors against entities carrying a Script
// component. An entity whose behavior is not loaded is skipped; behaviors
// are plugins and absence is expected. A behavior that errors degrades the
// pass, never aborts it.
type ScriptSystem struct {
	world  *ecs.World
	engine *scripting.Engine
}

func NewScriptSystem(world *ecs.World, engine *scripting.Engine) *ScriptSystem {
	return &ScriptSystem{world: world, engine: engine}
}

func (s *ScriptSystem) Name() string { return "script" }

func (s *ScriptSystem) Update(dt time.Duration) error {
	var failures []error
	for _, id := range s.world.Query(component.TypeScript, component.TypeTransform) {
		sc, ok := s.world.GetComponent(id, component.TypeScript)
		if !ok {
			continue
		}
		tc, ok := s.world.GetComponent(id, component.TypeTransform)
		if !ok {
			continue
		}
		script := sc.(*component.Script)
		if !s.engine.HasBehavior(script.Behavior) {
			continue
		}
		transform := tc.(*component.Transform)
		res, err := s.engine.UpdateBehavior(script.Behavior, scripting.BehaviorContext{
			Dt:     dt.Seconds(),
			Entity: uint64(id),
			X:      transform.Position.X,
			Y:      transform.Position.Y,
			Z:      transform.Position.Z,
		})
		if err != nil {
			failures = append(failures, fmt.Errorf("entity %d: %w", id, err))
			continue
		}
		transform.Position = math3.Vec3{X: res.X, Y: res.Y, Z: res.Z}
	}
	return errors.Join(failures...)
}
