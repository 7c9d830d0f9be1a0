package component

import "github.com/orbitforge/studio/internal/core/ecs"

// Script attaches a named Lua behavior to an entity. The script system
// calls the behavior's update function each tick with the entity's pose.
type Script struct {
	Behavior string
}

func (s *Script) Type() string { return TypeScript }

func (s *Script) Clone() ecs.Component {
	c := *s
	return &c
}
