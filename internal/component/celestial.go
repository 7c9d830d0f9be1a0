package component

import "github.com/orbitforge/studio/internal/core/ecs"

// CelestialBody describes a sun, planet, or moon in the studio scene.
type CelestialBody struct {
	Name   string
	Mass   float64 // kg
	Radius float64 // scene units
}

func (b *CelestialBody) Type() string { return TypeCelestialBody }

func (b *CelestialBody) Clone() ecs.Component {
	c := *b
	return &c
}

// Orbit describes a Keplerian orbit around the scene origin. The orbit
// system advances Phase and writes the resulting position into the
// entity's Transform.
type Orbit struct {
	SemiMajorAxis float64 // scene units
	Eccentricity  float64 // 0..1
	AngularSpeed  float64 // radians per second
	Phase         float64 // current angle, radians
}

func (o *Orbit) Type() string { return TypeOrbit }

func (o *Orbit) Clone() ecs.Component {
	c := *o
	return &c
}
