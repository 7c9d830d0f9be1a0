package ecs

import "errors"

var (
	// ErrUnknownEntity is returned when an operation references an entity
	// id that is not live (never created, destroyed, or stale generation).
	ErrUnknownEntity = errors.New("ecs: unknown entity")

	// ErrDuplicateComponent is returned when adding a component to an
	// entity that already holds one of the same type tag. The existing
	// component is left unchanged.
	ErrDuplicateComponent = errors.New("ecs: duplicate component")
)
