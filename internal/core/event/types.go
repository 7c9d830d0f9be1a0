package event

import "github.com/orbitforge/studio/internal/core/ecs"

// Kernel lifecycle events. Plugins subscribe to observe registry churn and
// entity teardown without polling the World.

type EntityDestroyed struct {
	EntityID ecs.EntityID
}

type RendererRegistered struct {
	Name     string
	Priority int
}

type RendererUnregistered struct {
	Name string
}

type BodyRemoved struct {
	EntityID ecs.EntityID
}
