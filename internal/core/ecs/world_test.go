package ecs

import (
	"errors"
	"testing"
)

type fakeComponent struct {
	tag   string
	Value int
}

func (c *fakeComponent) Type() string { return c.tag }

func (c *fakeComponent) Clone() Component {
	cp := *c
	return &cp
}

func TestAddAndGetComponent(t *testing.T) {
	w := NewWorld()
	id := w.CreateEntity()

	if err := w.AddComponent(id, &fakeComponent{tag: "Body", Value: 7}); err != nil {
		t.Fatalf("add: %v", err)
	}

	c, ok := w.GetComponent(id, "Body")
	if !ok {
		t.Fatal("expected component present")
	}
	if c.(*fakeComponent).Value != 7 {
		t.Errorf("expected value 7, got %d", c.(*fakeComponent).Value)
	}

	if _, ok := w.GetComponent(id, "Orbit"); ok {
		t.Error("expected absence for unattached type")
	}
}

func TestAddComponentUnknownEntity(t *testing.T) {
	w := NewWorld()
	id := w.CreateEntity()
	w.DestroyEntity(id)

	err := w.AddComponent(id, &fakeComponent{tag: "Body"})
	if !errors.Is(err, ErrUnknownEntity) {
		t.Errorf("expected ErrUnknownEntity, got %v", err)
	}
}

func TestDuplicateComponentLeavesOriginal(t *testing.T) {
	w := NewWorld()
	id := w.CreateEntity()

	if err := w.AddComponent(id, &fakeComponent{tag: "Body", Value: 1}); err != nil {
		t.Fatalf("add: %v", err)
	}
	err := w.AddComponent(id, &fakeComponent{tag: "Body", Value: 2})
	if !errors.Is(err, ErrDuplicateComponent) {
		t.Fatalf("expected ErrDuplicateComponent, got %v", err)
	}

	c, _ := w.GetComponent(id, "Body")
	if c.(*fakeComponent).Value != 1 {
		t.Errorf("failed add must leave existing component unchanged, got %d", c.(*fakeComponent).Value)
	}
}

func TestDestroyEntityDetachesAllComponents(t *testing.T) {
	w := NewWorld()
	id := w.CreateEntity()
	w.AddComponent(id, &fakeComponent{tag: "Body"})
	w.AddComponent(id, &fakeComponent{tag: "Orbit"})

	w.DestroyEntity(id)

	for _, tag := range []string{"Body", "Orbit"} {
		if _, ok := w.GetComponent(id, tag); ok {
			t.Errorf("component %s still present after destroy", tag)
		}
	}
	if w.Alive(id) {
		t.Error("entity still alive after destroy")
	}
	// Destroying again is a no-op.
	w.DestroyEntity(id)
}

func TestDestroyedIDNotReissued(t *testing.T) {
	w := NewWorld()
	a := w.CreateEntity()
	w.DestroyEntity(a)

	b := w.CreateEntity()
	if a == b {
		t.Fatal("destroyed id reissued verbatim")
	}
	if b.Index() != a.Index() {
		t.Error("expected index recycling")
	}
	if b.Generation() != a.Generation()+1 {
		t.Errorf("expected bumped generation, got %d then %d", a.Generation(), b.Generation())
	}
	// The stale id must not reach the recycled slot's components.
	w.AddComponent(b, &fakeComponent{tag: "Body"})
	if _, ok := w.GetComponent(a, "Body"); ok {
		t.Error("stale id resolved a live component")
	}
}

func TestRemoveComponentNoopWhenAbsent(t *testing.T) {
	w := NewWorld()
	id := w.CreateEntity()

	if w.RemoveComponent(id, "Body") {
		t.Error("remove of absent component reported true")
	}
	w.AddComponent(id, &fakeComponent{tag: "Body"})
	if !w.RemoveComponent(id, "Body") {
		t.Error("remove of present component reported false")
	}
	if _, ok := w.GetComponent(id, "Body"); ok {
		t.Error("component present after remove")
	}
}

func TestQueryRequiresAllTags(t *testing.T) {
	w := NewWorld()

	both := w.CreateEntity()
	w.AddComponent(both, &fakeComponent{tag: "Body"})
	w.AddComponent(both, &fakeComponent{tag: "Orbit"})

	onlyBody := w.CreateEntity()
	w.AddComponent(onlyBody, &fakeComponent{tag: "Body"})

	got := w.Query("Body", "Orbit")
	if len(got) != 1 || got[0] != both {
		t.Errorf("expected [%d], got %v", both, got)
	}

	if got := w.Query("Body", "Missing"); got != nil {
		t.Errorf("expected nil for unsatisfiable query, got %v", got)
	}
}

func TestQueryDeterministicAndRestartable(t *testing.T) {
	w := NewWorld()
	var ids []EntityID
	for i := 0; i < 10; i++ {
		id := w.CreateEntity()
		w.AddComponent(id, &fakeComponent{tag: "Body", Value: i})
		ids = append(ids, id)
	}

	first := w.Query("Body")
	second := w.Query("Body")
	if len(first) != 10 || len(second) != 10 {
		t.Fatalf("expected 10 results, got %d and %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("query order not deterministic at %d: %d vs %d", i, first[i], second[i])
		}
		if i > 0 && first[i] <= first[i-1] {
			t.Fatalf("query not sorted ascending at %d", i)
		}
	}

	// Re-querying reflects current state, not a snapshot.
	w.DestroyEntity(ids[3])
	if got := w.Query("Body"); len(got) != 9 {
		t.Errorf("expected 9 after destroy, got %d", len(got))
	}
}

func TestFlushDestroyQueue(t *testing.T) {
	w := NewWorld()
	a := w.CreateEntity()
	b := w.CreateEntity()
	w.AddComponent(a, &fakeComponent{tag: "Body"})

	w.MarkForDestruction(a)
	w.MarkForDestruction(a) // duplicate mark is harmless
	if !w.Alive(a) {
		t.Fatal("marked entity destroyed before flush")
	}

	destroyed := w.FlushDestroyQueue()
	if len(destroyed) != 1 || destroyed[0] != a {
		t.Errorf("expected [%d] destroyed, got %v", a, destroyed)
	}
	if w.Alive(a) || !w.Alive(b) {
		t.Error("wrong entities destroyed")
	}
}

func TestPendingDestructionKeepsQueueAndComponents(t *testing.T) {
	w := NewWorld()
	a := w.CreateEntity()
	b := w.CreateEntity()
	w.AddComponent(a, &fakeComponent{tag: "Body"})

	w.MarkForDestruction(a)
	w.MarkForDestruction(a) // duplicate mark reported once
	w.MarkForDestruction(b)
	w.DestroyEntity(b) // already-dead entries drop out

	pending := w.PendingDestruction()
	if len(pending) != 1 || pending[0] != a {
		t.Fatalf("expected pending [%d], got %v", a, pending)
	}
	if !w.HasComponent(a, "Body") {
		t.Error("peeking at the queue must not detach components")
	}

	// The queue itself is untouched until the flush.
	if destroyed := w.FlushDestroyQueue(); len(destroyed) != 1 || destroyed[0] != a {
		t.Errorf("flush after peek destroyed %v", destroyed)
	}
	if len(w.PendingDestruction()) != 0 {
		t.Error("queue not empty after flush")
	}
}

func TestCloneValueIndependence(t *testing.T) {
	orig := &fakeComponent{tag: "Body", Value: 5}
	clone := orig.Clone().(*fakeComponent)

	if clone.Value != orig.Value || clone.Type() != orig.Type() {
		t.Fatal("clone not equal by value")
	}
	clone.Value = 99
	if orig.Value != 5 {
		t.Error("mutating clone reached the original")
	}
}
