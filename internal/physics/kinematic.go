package physics

import (
	"context"
	"fmt"
	"time"

	"github.com/orbitforge/studio/internal/math3"
	"go.uber.org/zap"
)

// KinematicConfig tunes the reference backend.
type KinematicConfig struct {
	Gravity math3.Vec3
	// Substeps splits each Step into fixed fractions for stability.
	// Values below 1 are treated as 1.
	Substeps int
}

// kinematicBody implements MutableRigidBody.
type kinematicBody struct {
	position  math3.Vec3
	rotation  math3.Quat
	velocity  math3.Vec3
	angVel    math3.Vec3
	mass      float64
	kinematic bool
}

func (b *kinematicBody) Position() math3.Vec3 { return b.position }
func (b *kinematicBody) Rotation() math3.Quat { return b.rotation }

func (b *kinematicBody) SetPosition(p math3.Vec3) { b.position = p }
func (b *kinematicBody) SetRotation(r math3.Quat) { b.rotation = r.Normalized() }

// KinematicEngine is the reference Engine backend: explicit Euler velocity
// integration plus uniform gravity, no collisions or constraints. It is
// deterministic by construction (each body integrates independently, pure
// float64 arithmetic) and exists so the kernel and its tests never depend
// on an external solver.
type KinematicEngine struct {
	cfg    KinematicConfig
	bodies map[BodyHandle]*kinematicBody
	nextID BodyHandle
	ready  bool
	log    *zap.Logger
}

func NewKinematicEngine(cfg KinematicConfig, log *zap.Logger) *KinematicEngine {
	if cfg.Substeps < 1 {
		cfg.Substeps = 1
	}
	return &KinematicEngine{
		cfg:    cfg,
		bodies: make(map[BodyHandle]*kinematicBody, 64),
		nextID: 1,
		log:    log,
	}
}

// Init marks the engine ready. Calling it again is a no-op.
func (e *KinematicEngine) Init(_ context.Context) error {
	if e.ready {
		return nil
	}
	e.ready = true
	e.log.Debug("kinematic engine initialized",
		zap.Int("substeps", e.cfg.Substeps),
	)
	return nil
}

func (e *KinematicEngine) CreateRigidBody(cfg BodyConfig) (BodyHandle, error) {
	if !e.ready {
		return 0, ErrEngineNotReady
	}
	rot := cfg.Rotation
	if rot == (math3.Quat{}) {
		rot = math3.IdentityQuat()
	}
	h := e.nextID
	e.nextID++
	e.bodies[h] = &kinematicBody{
		position:  cfg.Position,
		rotation:  rot.Normalized(),
		velocity:  cfg.Velocity,
		angVel:    cfg.AngularVelocity,
		mass:      cfg.Mass,
		kinematic: cfg.Kinematic,
	}
	return h, nil
}

func (e *KinematicEngine) RemoveRigidBody(h BodyHandle) error {
	if !e.ready {
		return ErrEngineNotReady
	}
	if _, ok := e.bodies[h]; !ok {
		return fmt.Errorf("remove body %d: %w", h, ErrStaleHandle)
	}
	delete(e.bodies, h)
	return nil
}

// Step advances every live body. Handles are never reused, so a removed
// body can never be touched by a later Step.
func (e *KinematicEngine) Step(dt time.Duration) error {
	if !e.ready {
		return ErrEngineNotReady
	}
	sub := dt.Seconds() / float64(e.cfg.Substeps)
	for i := 0; i < e.cfg.Substeps; i++ {
		for _, b := range e.bodies {
			if !b.kinematic {
				b.velocity = b.velocity.Add(e.cfg.Gravity.Scale(sub))
			}
			b.position = b.position.Add(b.velocity.Scale(sub))
			if b.angVel != (math3.Vec3{}) {
				b.rotation = b.rotation.Integrate(b.angVel, sub)
			}
		}
	}
	return nil
}

func (e *KinematicEngine) Body(h BodyHandle) (RigidBody, error) {
	if !e.ready {
		return nil, ErrEngineNotReady
	}
	b, ok := e.bodies[h]
	if !ok {
		return nil, fmt.Errorf("body %d: %w", h, ErrStaleHandle)
	}
	return b, nil
}

// SetVelocity overrides a body's linear velocity.
func (e *KinematicEngine) SetVelocity(h BodyHandle, v math3.Vec3) error {
	b, ok := e.bodies[h]
	if !ok {
		return fmt.Errorf("body %d: %w", h, ErrStaleHandle)
	}
	b.velocity = v
	return nil
}

// BodyCount returns the number of active bodies.
func (e *KinematicEngine) BodyCount() int {
	return len(e.bodies)
}
