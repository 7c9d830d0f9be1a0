package system

import (
	"math"
	"time"

	"github.com/orbitforge/studio/internal/component"
	"github.com/orbitforge/studio/internal/core/ecs"
	"github.com/orbitforge/studio/internal/math3"
)

// OrbitSystem propagates Keplerian orbits around the scene origin and
// writes the resulting position into each entity's Transform. Pure
// function of (phase, dt): two runs over identical state produce
// identical poses.
type OrbitSystem struct {
	world *ecs.World
}

func NewOrbitSystem(world *ecs.World) *OrbitSystem {
	return &OrbitSystem{world: world}
}

func (s *OrbitSystem) Name() string { return "orbit" }

func (s *OrbitSystem) Update(dt time.Duration) error {
	for _, id := range s.world.Query(component.TypeOrbit, component.TypeTransform) {
		oc, ok := s.world.GetComponent(id, component.TypeOrbit)
		if !ok {
			continue
		}
		tc, ok := s.world.GetComponent(id, component.TypeTransform)
		if !ok {
			continue
		}
		orbit := oc.(*component.Orbit)
		transform := tc.(*component.Transform)

		orbit.Phase = math.Mod(orbit.Phase+orbit.AngularSpeed*dt.Seconds(), 2*math.Pi)

		// Ellipse radius at the current true anomaly.
		r := orbit.SemiMajorAxis * (1 - orbit.Eccentricity*orbit.Eccentricity) /
			(1 + orbit.Eccentricity*math.Cos(orbit.Phase))
		transform.Position = math3.Vec3{
			X: r * math.Cos(orbit.Phase),
			Y: 0,
			Z: r * math.Sin(orbit.Phase),
		}
	}
	return nil
}
