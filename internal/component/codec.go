package component

import (
	"encoding/json"
	"fmt"

	"github.com/orbitforge/studio/internal/core/ecs"
)

// Encode serializes a component for snapshot storage.
func Encode(c ecs.Component) ([]byte, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", c.Type(), err)
	}
	return data, nil
}

// Decode reconstructs a component from its type tag and snapshot payload.
// RigidBody is rejected: body handles are engine-scoped and never survive
// a snapshot round trip.
func Decode(typeTag string, data []byte) (ecs.Component, error) {
	var c ecs.Component
	switch typeTag {
	case TypeTransform:
		c = &Transform{}
	case TypeCelestialBody:
		c = &CelestialBody{}
	case TypeOrbit:
		c = &Orbit{}
	case TypeScript:
		c = &Script{}
	case TypeRigidBody:
		return nil, fmt.Errorf("decode: %s is engine-scoped, not restorable", typeTag)
	default:
		return nil, fmt.Errorf("decode: unknown component type %q", typeTag)
	}
	if err := json.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("decode %s: %w", typeTag, err)
	}
	return c, nil
}
