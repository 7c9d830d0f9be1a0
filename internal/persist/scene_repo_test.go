package persist

import (
	"testing"

	"github.com/orbitforge/studio/internal/component"
	"github.com/orbitforge/studio/internal/core/ecs"
	"github.com/orbitforge/studio/internal/math3"
)

func encoded(t *testing.T, c ecs.Component) []byte {
	t.Helper()
	data, err := component.Encode(c)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestRestoreIntoRebuildsEntities(t *testing.T) {
	w := ecs.NewWorld()
	// Pre-existing entities must survive a restore untouched.
	existing := w.CreateEntity()
	w.AddComponent(existing, component.NewTransform())

	tf := component.NewTransform()
	tf.Position = math3.Vec3{X: 4, Y: 5, Z: 6}
	rows := []struct {
		storedID int64
		tag      string
		data     []byte
	}{
		{7, component.TypeTransform, encoded(t, tf)},
		{7, component.TypeCelestialBody, encoded(t, &component.CelestialBody{Name: "Sol", Mass: 1, Radius: 2})},
		{9, component.TypeTransform, encoded(t, component.NewTransform())},
	}

	idMap := make(map[int64]ecs.EntityID)
	var created []ecs.EntityID
	for _, row := range rows {
		if err := restoreInto(w, idMap, &created, row.storedID, row.tag, row.data); err != nil {
			t.Fatalf("row (%d, %s): %v", row.storedID, row.tag, err)
		}
	}

	if len(created) != 2 {
		t.Fatalf("expected 2 restored entities, got %d", len(created))
	}
	for _, id := range created {
		if id == existing {
			t.Fatal("restore reused a pre-existing entity id")
		}
	}

	// Both rows for stored id 7 land on the same fresh entity.
	first := idMap[7]
	got, ok := w.GetComponent(first, component.TypeTransform)
	if !ok {
		t.Fatal("restored entity missing transform")
	}
	if got.(*component.Transform).Position != tf.Position {
		t.Errorf("transform payload lost: %+v", got)
	}
	if !w.HasComponent(first, component.TypeCelestialBody) {
		t.Error("restored entity missing celestial body")
	}
	if w.HasComponent(idMap[9], component.TypeCelestialBody) {
		t.Error("component leaked onto the wrong restored entity")
	}
}

func TestRestoreIntoRejectsBadRows(t *testing.T) {
	w := ecs.NewWorld()
	idMap := make(map[int64]ecs.EntityID)
	var created []ecs.EntityID

	if err := restoreInto(w, idMap, &created, 1, "Bogus", []byte(`{}`)); err == nil {
		t.Error("unknown component type must fail the restore")
	}
	if err := restoreInto(w, idMap, &created, 2, component.TypeRigidBody, []byte(`{}`)); err == nil {
		t.Error("engine-scoped component must fail the restore")
	}
}
