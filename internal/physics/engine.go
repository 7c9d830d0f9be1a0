// Package physics defines the seam between the ECS kernel and a concrete
// rigid-body solver. The kernel depends only on the Engine contract;
// collision detection, constraint solving, and integration live behind it.
package physics

import (
	"context"
	"time"

	"github.com/orbitforge/studio/internal/math3"
)

// BodyHandle is an opaque, engine-issued rigid body identifier. A handle
// is valid from CreateRigidBody until RemoveRigidBody; any use after
// removal fails with ErrStaleHandle.
type BodyHandle uint64

// BodyConfig carries the initial state for a new rigid body.
type BodyConfig struct {
	Position        math3.Vec3
	Rotation        math3.Quat
	Velocity        math3.Vec3
	AngularVelocity math3.Vec3
	Mass            float64
	// Kinematic bodies are driven externally and ignore engine forces.
	Kinematic bool
}

// RigidBody is the read side every backend body supports.
type RigidBody interface {
	Position() math3.Vec3
	Rotation() math3.Quat
}

// MutableRigidBody is the optional write capability. Backends whose bodies
// cannot be repositioned under simulation simply do not implement it;
// SetPosition/SetRotation then fail with ErrUnsupportedOperation instead
// of silently doing nothing.
type MutableRigidBody interface {
	RigidBody
	SetPosition(math3.Vec3)
	SetRotation(math3.Quat)
}

// Engine is the contract a physics backend implements. All methods are
// called from the frame-pump goroutine; Init is awaited once at startup,
// never interleaved with Step.
type Engine interface {
	// Init performs one-time backend setup. Body operations before Init
	// completes fail with ErrEngineNotReady.
	Init(ctx context.Context) error

	// CreateRigidBody registers a new active body and returns its handle.
	CreateRigidBody(cfg BodyConfig) (BodyHandle, error)

	// RemoveRigidBody releases the body. The handle is permanently
	// invalidated; there is no transition back.
	RemoveRigidBody(h BodyHandle) error

	// Step advances all active bodies by one tick. Deterministic: the
	// same prior state and dt always produce the same transforms.
	Step(dt time.Duration) error

	// Body resolves a handle to its backend body for transform access.
	Body(h BodyHandle) (RigidBody, error)
}

// SetPosition overrides a body's position, effective from the next Step.
// Fails with ErrUnsupportedOperation if the backend body is not mutable.
func SetPosition(e Engine, h BodyHandle, p math3.Vec3) error {
	b, err := e.Body(h)
	if err != nil {
		return err
	}
	mb, ok := b.(MutableRigidBody)
	if !ok {
		return ErrUnsupportedOperation
	}
	mb.SetPosition(p)
	return nil
}

// SetRotation overrides a body's rotation, effective from the next Step.
// Fails with ErrUnsupportedOperation if the backend body is not mutable.
func SetRotation(e Engine, h BodyHandle, r math3.Quat) error {
	b, err := e.Body(h)
	if err != nil {
		return err
	}
	mb, ok := b.(MutableRigidBody)
	if !ok {
		return ErrUnsupportedOperation
	}
	mb.SetRotation(r)
	return nil
}
