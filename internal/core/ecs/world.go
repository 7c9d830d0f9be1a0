package ecs

import "fmt"

// World is the top-level ECS container. It owns the entity pool, one
// component store per type tag, and a deferred destruction queue flushed
// at tick end by the cleanup system.
//
// The World is exclusively owned by the frame-pump goroutine. Systems
// receive transient access during their update and must not retain it
// across frames.
type World struct {
	pool         *EntityPool
	stores       map[string]*componentStore
	destroyQueue []EntityID
}

func NewWorld() *World {
	return &World{
		pool:         NewEntityPool(),
		stores:       make(map[string]*componentStore, 16),
		destroyQueue: make([]EntityID, 0, 64),
	}
}

// CreateEntity allocates a fresh identifier. Identifiers are never reissued
// within a World lifetime: recycled indices carry a new generation.
func (w *World) CreateEntity() EntityID {
	return w.pool.Create()
}

// Alive reports whether the id refers to a live entity.
func (w *World) Alive(id EntityID) bool {
	return w.pool.Alive(id)
}

// EntityCount returns the number of live entities.
func (w *World) EntityCount() int {
	return w.pool.Live()
}

// DestroyEntity removes the entity and detaches all of its components.
// Destroying an unknown or already-destroyed id is a no-op; double-destroy
// at tick boundaries is normal.
func (w *World) DestroyEntity(id EntityID) {
	if !w.pool.Destroy(id) {
		return
	}
	for _, s := range w.stores {
		s.remove(id)
	}
}

// MarkForDestruction queues an entity for end-of-tick cleanup. Systems use
// this instead of DestroyEntity so an entity never disappears mid-pass.
func (w *World) MarkForDestruction(id EntityID) {
	w.destroyQueue = append(w.destroyQueue, id)
}

// PendingDestruction returns the still-live entities currently queued for
// end-of-tick destruction, deduplicated, in mark order. The queue is left
// untouched so callers can release external resources (physics bodies,
// renderer handles) before the flush detaches the components.
func (w *World) PendingDestruction() []EntityID {
	seen := make(map[EntityID]struct{}, len(w.destroyQueue))
	out := make([]EntityID, 0, len(w.destroyQueue))
	for _, id := range w.destroyQueue {
		if _, dup := seen[id]; dup || !w.pool.Alive(id) {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// FlushDestroyQueue destroys all queued entities and clears their
// components. Called by the cleanup system at the end of each tick.
// Returns the ids that were actually live and destroyed.
func (w *World) FlushDestroyQueue() []EntityID {
	destroyed := make([]EntityID, 0, len(w.destroyQueue))
	for _, id := range w.destroyQueue {
		if w.pool.Alive(id) {
			w.DestroyEntity(id)
			destroyed = append(destroyed, id)
		}
	}
	w.destroyQueue = w.destroyQueue[:0]
	return destroyed
}

// AddComponent attaches a component to a live entity. Fails with
// ErrUnknownEntity if the id is not live and ErrDuplicateComponent if the
// entity already holds a component of the same type tag; a failed add
// leaves existing state untouched.
func (w *World) AddComponent(id EntityID, c Component) error {
	if !w.pool.Alive(id) {
		return fmt.Errorf("add %s: %w (id=%d)", c.Type(), ErrUnknownEntity, id)
	}
	s, ok := w.stores[c.Type()]
	if !ok {
		s = newComponentStore()
		w.stores[c.Type()] = s
	}
	if s.has(id) {
		return fmt.Errorf("add %s: %w (id=%d)", c.Type(), ErrDuplicateComponent, id)
	}
	s.set(id, c)
	return nil
}

// GetComponent looks up the component of the given type tag. Absence is a
// normal outcome, not an error.
func (w *World) GetComponent(id EntityID, typeTag string) (Component, bool) {
	if !w.pool.Alive(id) {
		return nil, false
	}
	s, ok := w.stores[typeTag]
	if !ok {
		return nil, false
	}
	return s.get(id)
}

// HasComponent reports whether the entity holds a component of the tag.
func (w *World) HasComponent(id EntityID, typeTag string) bool {
	_, ok := w.GetComponent(id, typeTag)
	return ok
}

// RemoveComponent detaches the component of the given type tag and reports
// whether one was present. Removing an absent component is a no-op.
func (w *World) RemoveComponent(id EntityID, typeTag string) bool {
	s, ok := w.stores[typeTag]
	if !ok {
		return false
	}
	return s.remove(id)
}

// Components returns every component attached to the entity, in no
// particular order. Used by snapshot persistence.
func (w *World) Components(id EntityID) []Component {
	if !w.pool.Alive(id) {
		return nil
	}
	var out []Component
	for _, s := range w.stores {
		if c, ok := s.get(id); ok {
			out = append(out, c)
		}
	}
	return out
}

// TypeTags returns the type tags that currently have at least one attached
// component instance.
func (w *World) TypeTags() []string {
	tags := make([]string, 0, len(w.stores))
	for tag, s := range w.stores {
		if s.len() > 0 {
			tags = append(tags, tag)
		}
	}
	return tags
}
