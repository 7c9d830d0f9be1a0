package system

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/orbitforge/studio/internal/component"
	"github.com/orbitforge/studio/internal/core/ecs"
	"github.com/orbitforge/studio/internal/core/event"
	"github.com/orbitforge/studio/internal/math3"
	"github.com/orbitforge/studio/internal/physics"
	"github.com/orbitforge/studio/internal/scripting"
	"go.uber.org/zap"
)

func newPhysicsWorld(t *testing.T) (*ecs.World, *physics.KinematicEngine) {
	t.Helper()
	w := ecs.NewWorld()
	eng := physics.NewKinematicEngine(physics.KinematicConfig{}, zap.NewNop())
	if err := eng.Init(context.Background()); err != nil {
		t.Fatal(err)
	}
	return w, eng
}

func TestPhysicsSystemCopiesBodyTransform(t *testing.T) {
	w, eng := newPhysicsWorld(t)
	id := w.CreateEntity()
	tf := component.NewTransform()
	if err := w.AddComponent(id, tf); err != nil {
		t.Fatal(err)
	}
	h, err := eng.CreateRigidBody(physics.BodyConfig{
		Velocity: math3.Vec3{X: 2},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := w.AddComponent(id, &component.RigidBodyRef{Handle: h}); err != nil {
		t.Fatal(err)
	}

	sys := NewPhysicsSystem(w, eng)
	if err := sys.Update(time.Second); err != nil {
		t.Fatalf("update: %v", err)
	}

	if math.Abs(tf.Position.X-2) > 1e-9 {
		t.Errorf("transform not synced from body, x=%v", tf.Position.X)
	}
}

func TestPhysicsSystemSurfacesStaleHandle(t *testing.T) {
	w, eng := newPhysicsWorld(t)
	id := w.CreateEntity()
	w.AddComponent(id, component.NewTransform())
	h, _ := eng.CreateRigidBody(physics.BodyConfig{})
	w.AddComponent(id, &component.RigidBodyRef{Handle: h})

	eng.RemoveRigidBody(h)

	sys := NewPhysicsSystem(w, eng)
	if err := sys.Update(time.Second); err == nil {
		t.Error("dangling body reference must surface an error")
	}
}

func TestOrbitSystemDeterministicEllipse(t *testing.T) {
	run := func() math3.Vec3 {
		w := ecs.NewWorld()
		id := w.CreateEntity()
		tf := component.NewTransform()
		w.AddComponent(id, tf)
		w.AddComponent(id, &component.Orbit{
			SemiMajorAxis: 10,
			Eccentricity:  0.1,
			AngularSpeed:  0.5,
		})

		sys := NewOrbitSystem(w)
		for i := 0; i < 50; i++ {
			if err := sys.Update(16 * time.Millisecond); err != nil {
				t.Fatal(err)
			}
		}
		return tf.Position
	}

	p1 := run()
	p2 := run()
	if p1 != p2 {
		t.Errorf("orbit propagation diverged: %+v vs %+v", p1, p2)
	}
	if p1.Y != 0 {
		t.Errorf("orbit must stay in the y=0 plane, got %v", p1.Y)
	}
	if p1 == (math3.Vec3{}) {
		t.Error("orbit never moved the body")
	}
}

func TestOrbitCircularRadiusConstant(t *testing.T) {
	w := ecs.NewWorld()
	id := w.CreateEntity()
	tf := component.NewTransform()
	w.AddComponent(id, tf)
	w.AddComponent(id, &component.Orbit{SemiMajorAxis: 5, AngularSpeed: 1})

	sys := NewOrbitSystem(w)
	for i := 0; i < 100; i++ {
		sys.Update(33 * time.Millisecond)
		if r := tf.Position.Length(); math.Abs(r-5) > 1e-9 {
			t.Fatalf("circular orbit radius drifted: %v", r)
		}
	}
}

func TestScriptSystemMovesEntity(t *testing.T) {
	dir := t.TempDir()
	script := `
register_behavior("rise", function(ctx)
    return { x = ctx.x, y = ctx.y + ctx.dt, z = ctx.z }
end)
`
	if err := os.WriteFile(filepath.Join(dir, "rise.lua"), []byte(script), 0644); err != nil {
		t.Fatal(err)
	}
	lua, err := scripting.NewEngine(dir, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer lua.Close()

	w := ecs.NewWorld()
	id := w.CreateEntity()
	tf := component.NewTransform()
	w.AddComponent(id, tf)
	w.AddComponent(id, &component.Script{Behavior: "rise"})

	// A second entity with an unloaded behavior is silently skipped.
	other := w.CreateEntity()
	w.AddComponent(other, component.NewTransform())
	w.AddComponent(other, &component.Script{Behavior: "missing"})

	sys := NewScriptSystem(w, lua)
	if err := sys.Update(time.Second); err != nil {
		t.Fatalf("update: %v", err)
	}
	if math.Abs(tf.Position.Y-1) > 1e-9 {
		t.Errorf("behavior did not move entity, y=%v", tf.Position.Y)
	}
}

func TestCleanupSystemFlushesAndAnnounces(t *testing.T) {
	w := ecs.NewWorld()
	bus := event.NewBus()
	var destroyed []ecs.EntityID
	event.Subscribe(bus, func(e event.EntityDestroyed) {
		destroyed = append(destroyed, e.EntityID)
	})

	id := w.CreateEntity()
	w.AddComponent(id, component.NewTransform())
	w.MarkForDestruction(id)

	sys := NewCleanupSystem(w, nil, bus)
	if err := sys.Update(time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if w.Alive(id) {
		t.Error("entity alive after cleanup")
	}

	bus.SwapBuffers()
	bus.DispatchAll()
	if len(destroyed) != 1 || destroyed[0] != id {
		t.Errorf("expected destruction event for %d, got %v", id, destroyed)
	}
}

func TestCleanupReleasesRigidBody(t *testing.T) {
	w, eng := newPhysicsWorld(t)
	bus := event.NewBus()
	var released []ecs.EntityID
	event.Subscribe(bus, func(e event.BodyRemoved) {
		released = append(released, e.EntityID)
	})

	id := w.CreateEntity()
	w.AddComponent(id, component.NewTransform())
	h, err := eng.CreateRigidBody(physics.BodyConfig{})
	if err != nil {
		t.Fatal(err)
	}
	w.AddComponent(id, &component.RigidBodyRef{Handle: h})

	// Marking twice must release the body once.
	w.MarkForDestruction(id)
	w.MarkForDestruction(id)

	sys := NewCleanupSystem(w, eng, bus)
	if err := sys.Update(time.Millisecond); err != nil {
		t.Fatalf("update: %v", err)
	}

	if n := eng.BodyCount(); n != 0 {
		t.Errorf("backend body leaked, %d still active", n)
	}
	if _, err := eng.Body(h); !errors.Is(err, physics.ErrStaleHandle) {
		t.Errorf("expected stale handle after cleanup, got %v", err)
	}
	if w.Alive(id) {
		t.Error("entity alive after cleanup")
	}

	bus.SwapBuffers()
	bus.DispatchAll()
	if len(released) != 1 || released[0] != id {
		t.Errorf("expected one body-removed event for %d, got %v", id, released)
	}
}
