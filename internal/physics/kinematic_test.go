package physics

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/orbitforge/studio/internal/math3"
	"go.uber.org/zap"
)

func newEngineForTest(t *testing.T, cfg KinematicConfig) *KinematicEngine {
	t.Helper()
	e := NewKinematicEngine(cfg, zap.NewNop())
	if err := e.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	return e
}

func TestBodyOperationsBeforeInit(t *testing.T) {
	e := NewKinematicEngine(KinematicConfig{}, zap.NewNop())

	if _, err := e.CreateRigidBody(BodyConfig{}); !errors.Is(err, ErrEngineNotReady) {
		t.Errorf("create before init: expected ErrEngineNotReady, got %v", err)
	}
	if err := e.Step(time.Second); !errors.Is(err, ErrEngineNotReady) {
		t.Errorf("step before init: expected ErrEngineNotReady, got %v", err)
	}
}

func TestInitIdempotent(t *testing.T) {
	e := newEngineForTest(t, KinematicConfig{})
	if err := e.Init(context.Background()); err != nil {
		t.Errorf("second init: %v", err)
	}
}

func TestNoForcesKeepsBodyAtOrigin(t *testing.T) {
	e := newEngineForTest(t, KinematicConfig{})
	h, err := e.CreateRigidBody(BodyConfig{})
	if err != nil {
		t.Fatal(err)
	}

	e.Step(time.Second)
	e.Step(time.Second)

	b, err := e.Body(h)
	if err != nil {
		t.Fatal(err)
	}
	if b.Position() != (math3.Vec3{}) {
		t.Errorf("expected body still at origin, got %+v", b.Position())
	}
}

func TestStepDeterminism(t *testing.T) {
	run := func() (math3.Vec3, math3.Quat) {
		e := newEngineForTest(t, KinematicConfig{
			Gravity:  math3.Vec3{Y: -9.81},
			Substeps: 4,
		})
		h, err := e.CreateRigidBody(BodyConfig{
			Position:        math3.Vec3{X: 1, Y: 10, Z: -2},
			Velocity:        math3.Vec3{X: 0.5},
			AngularVelocity: math3.Vec3{Z: 0.3},
			Mass:            2,
		})
		if err != nil {
			t.Fatal(err)
		}
		for i := 0; i < 100; i++ {
			if err := e.Step(16 * time.Millisecond); err != nil {
				t.Fatal(err)
			}
		}
		b, err := e.Body(h)
		if err != nil {
			t.Fatal(err)
		}
		return b.Position(), b.Rotation()
	}

	p1, r1 := run()
	p2, r2 := run()
	if p1 != p2 {
		t.Errorf("positions diverged: %+v vs %+v", p1, p2)
	}
	if r1 != r2 {
		t.Errorf("rotations diverged: %+v vs %+v", r1, r2)
	}
	if p1.Y >= 10 {
		t.Errorf("gravity had no effect: y=%v", p1.Y)
	}
}

func TestKinematicBodyIgnoresGravity(t *testing.T) {
	e := newEngineForTest(t, KinematicConfig{Gravity: math3.Vec3{Y: -9.81}})
	h, err := e.CreateRigidBody(BodyConfig{Kinematic: true})
	if err != nil {
		t.Fatal(err)
	}
	e.Step(time.Second)
	b, _ := e.Body(h)
	if b.Position() != (math3.Vec3{}) {
		t.Errorf("kinematic body moved under gravity: %+v", b.Position())
	}
}

func TestRemovedHandleIsStale(t *testing.T) {
	e := newEngineForTest(t, KinematicConfig{})
	h, err := e.CreateRigidBody(BodyConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if err := e.RemoveRigidBody(h); err != nil {
		t.Fatal(err)
	}

	if err := SetPosition(e, h, math3.Vec3{X: 1}); !errors.Is(err, ErrStaleHandle) {
		t.Errorf("set position on removed body: expected ErrStaleHandle, got %v", err)
	}
	if _, err := e.Body(h); !errors.Is(err, ErrStaleHandle) {
		t.Errorf("body lookup on removed handle: expected ErrStaleHandle, got %v", err)
	}
	if err := e.RemoveRigidBody(h); !errors.Is(err, ErrStaleHandle) {
		t.Errorf("double remove: expected ErrStaleHandle, got %v", err)
	}
}

func TestHandlesNeverReused(t *testing.T) {
	e := newEngineForTest(t, KinematicConfig{})
	a, _ := e.CreateRigidBody(BodyConfig{})
	e.RemoveRigidBody(a)
	b, _ := e.CreateRigidBody(BodyConfig{})
	if a == b {
		t.Error("handle reused after removal")
	}
}

func TestSetPositionTakesEffectNextStep(t *testing.T) {
	e := newEngineForTest(t, KinematicConfig{})
	h, _ := e.CreateRigidBody(BodyConfig{Velocity: math3.Vec3{X: 1}})

	if err := SetPosition(e, h, math3.Vec3{X: 100}); err != nil {
		t.Fatal(err)
	}
	e.Step(time.Second)

	b, _ := e.Body(h)
	if math.Abs(b.Position().X-101) > 1e-9 {
		t.Errorf("expected x=101 after override plus one step, got %v", b.Position().X)
	}
}

// frozenEngine exposes bodies without the mutable capability.
type frozenEngine struct {
	*KinematicEngine
}

type frozenBody struct {
	inner RigidBody
}

func (b frozenBody) Position() math3.Vec3 { return b.inner.Position() }
func (b frozenBody) Rotation() math3.Quat { return b.inner.Rotation() }

func (e frozenEngine) Body(h BodyHandle) (RigidBody, error) {
	b, err := e.KinematicEngine.Body(h)
	if err != nil {
		return nil, err
	}
	return frozenBody{inner: b}, nil
}

func TestSetPositionWithoutCapability(t *testing.T) {
	inner := newEngineForTest(t, KinematicConfig{})
	e := frozenEngine{KinematicEngine: inner}
	h, err := e.CreateRigidBody(BodyConfig{})
	if err != nil {
		t.Fatal(err)
	}

	if err := SetPosition(e, h, math3.Vec3{X: 1}); !errors.Is(err, ErrUnsupportedOperation) {
		t.Errorf("expected ErrUnsupportedOperation, got %v", err)
	}
	if err := SetRotation(e, h, math3.IdentityQuat()); !errors.Is(err, ErrUnsupportedOperation) {
		t.Errorf("expected ErrUnsupportedOperation, got %v", err)
	}
}
