// Package scene loads declarative scene manifests: YAML files listing
// entities and their component blocks, instantiated into a World at
// startup or on demand.
package scene

import (
	"fmt"
	"os"

	"github.com/orbitforge/studio/internal/component"
	"github.com/orbitforge/studio/internal/core/ecs"
	"github.com/orbitforge/studio/internal/math3"
	"gopkg.in/yaml.v3"
)

// Manifest is one scene file.
type Manifest struct {
	Name     string      `yaml:"name"`
	Entities []EntityDef `yaml:"entities"`
}

// EntityDef declares one entity. Component blocks are optional; at least
// one must be present.
type EntityDef struct {
	Name          string            `yaml:"name"`
	Transform     *TransformDef     `yaml:"transform"`
	CelestialBody *CelestialBodyDef `yaml:"celestial_body"`
	Orbit         *OrbitDef         `yaml:"orbit"`
	RigidBody     *RigidBodyDef     `yaml:"rigid_body"`
	Script        *ScriptDef        `yaml:"script"`
}

type TransformDef struct {
	Position []float64 `yaml:"position"` // [x, y, z]
	Rotation []float64 `yaml:"rotation"` // [w, x, y, z], identity if omitted
	Scale    []float64 `yaml:"scale"`    // [x, y, z], ones if omitted
}

type CelestialBodyDef struct {
	Name   string  `yaml:"name"`
	Mass   float64 `yaml:"mass"`
	Radius float64 `yaml:"radius"`
}

type OrbitDef struct {
	SemiMajorAxis float64 `yaml:"semi_major_axis"`
	Eccentricity  float64 `yaml:"eccentricity"`
	AngularSpeed  float64 `yaml:"angular_speed"`
	Phase         float64 `yaml:"phase"`
}

// RigidBodyDef declares that the entity gets a physics body at
// instantiation time. The handle itself is engine-issued, never part of
// the manifest.
type RigidBodyDef struct {
	Velocity  []float64 `yaml:"velocity"` // [x, y, z]
	Mass      float64   `yaml:"mass"`
	Kinematic bool      `yaml:"kinematic"`
}

type ScriptDef struct {
	Behavior string `yaml:"behavior"`
}

// Load reads and validates a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene %s: %w", path, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse scene %s: %w", path, err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("scene %s: %w", path, err)
	}
	return &m, nil
}

// Validate checks structural requirements before instantiation.
func (m *Manifest) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("missing scene name")
	}
	seen := make(map[string]bool, len(m.Entities))
	for i, e := range m.Entities {
		if e.Name == "" {
			return fmt.Errorf("entity %d: missing name", i)
		}
		if seen[e.Name] {
			return fmt.Errorf("entity %q: duplicate name", e.Name)
		}
		seen[e.Name] = true
		if e.Transform == nil && e.CelestialBody == nil && e.Orbit == nil &&
			e.RigidBody == nil && e.Script == nil {
			return fmt.Errorf("entity %q: no components", e.Name)
		}
		if e.Orbit != nil && e.Transform == nil {
			return fmt.Errorf("entity %q: orbit requires a transform", e.Name)
		}
		if e.RigidBody != nil && e.Transform == nil {
			return fmt.Errorf("entity %q: rigid_body requires a transform", e.Name)
		}
		if e.Script != nil && e.Script.Behavior == "" {
			return fmt.Errorf("entity %q: script missing behavior", e.Name)
		}
		if e.Orbit != nil {
			if e.Orbit.Eccentricity < 0 || e.Orbit.Eccentricity >= 1 {
				return fmt.Errorf("entity %q: eccentricity %v out of [0,1)", e.Name, e.Orbit.Eccentricity)
			}
			if e.Orbit.SemiMajorAxis <= 0 {
				return fmt.Errorf("entity %q: semi_major_axis must be positive", e.Name)
			}
		}
		if err := checkVec(e.Transform); err != nil {
			return fmt.Errorf("entity %q: %w", e.Name, err)
		}
	}
	return nil
}

func checkVec(t *TransformDef) error {
	if t == nil {
		return nil
	}
	if t.Position != nil && len(t.Position) != 3 {
		return fmt.Errorf("position needs 3 elements, got %d", len(t.Position))
	}
	if t.Rotation != nil && len(t.Rotation) != 4 {
		return fmt.Errorf("rotation needs 4 elements, got %d", len(t.Rotation))
	}
	if t.Scale != nil && len(t.Scale) != 3 {
		return fmt.Errorf("scale needs 3 elements, got %d", len(t.Scale))
	}
	return nil
}

// Instantiate creates the manifest's entities in the world and returns the
// new ids, keyed by declaration order. Rigid bodies are not created here;
// the caller owns the physics engine (see studio wiring).
func (m *Manifest) Instantiate(w *ecs.World) ([]ecs.EntityID, error) {
	ids := make([]ecs.EntityID, 0, len(m.Entities))
	for _, def := range m.Entities {
		id := w.CreateEntity()
		for _, c := range def.components() {
			if err := w.AddComponent(id, c); err != nil {
				return nil, fmt.Errorf("entity %q: %w", def.Name, err)
			}
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (d EntityDef) components() []ecs.Component {
	var out []ecs.Component
	if d.Transform != nil {
		tf := component.NewTransform()
		if d.Transform.Position != nil {
			tf.Position = vec3(d.Transform.Position)
		}
		if d.Transform.Rotation != nil {
			tf.Rotation = math3.Quat{
				W: d.Transform.Rotation[0],
				X: d.Transform.Rotation[1],
				Y: d.Transform.Rotation[2],
				Z: d.Transform.Rotation[3],
			}.Normalized()
		}
		if d.Transform.Scale != nil {
			tf.Scale = vec3(d.Transform.Scale)
		}
		out = append(out, tf)
	}
	if d.CelestialBody != nil {
		out = append(out, &component.CelestialBody{
			Name:   d.CelestialBody.Name,
			Mass:   d.CelestialBody.Mass,
			Radius: d.CelestialBody.Radius,
		})
	}
	if d.Orbit != nil {
		out = append(out, &component.Orbit{
			SemiMajorAxis: d.Orbit.SemiMajorAxis,
			Eccentricity:  d.Orbit.Eccentricity,
			AngularSpeed:  d.Orbit.AngularSpeed,
			Phase:         d.Orbit.Phase,
		})
	}
	if d.Script != nil {
		out = append(out, &component.Script{Behavior: d.Script.Behavior})
	}
	return out
}

func vec3(v []float64) math3.Vec3 {
	return math3.Vec3{X: v[0], Y: v[1], Z: v[2]}
}
