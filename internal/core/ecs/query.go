package ecs

import "sort"

// Query returns the ids of live entities holding a component of every
// listed type tag. The result reflects current state at call time;
// re-querying after mutation reflects the new state. Ids are sorted
// ascending so a single call's ordering is deterministic.
//
// Iteration starts from the smallest store and probes the rest, in the
// manner of a hash join.
func (w *World) Query(typeTags ...string) []EntityID {
	if len(typeTags) == 0 {
		return nil
	}

	stores := make([]*componentStore, 0, len(typeTags))
	for _, tag := range typeTags {
		s, ok := w.stores[tag]
		if !ok || s.len() == 0 {
			return nil
		}
		stores = append(stores, s)
	}

	// Probe from the smallest store.
	smallest := stores[0]
	for _, s := range stores[1:] {
		if s.len() < smallest.len() {
			smallest = s
		}
	}

	out := make([]EntityID, 0, smallest.len())
outer:
	for id := range smallest.data {
		if !w.pool.Alive(id) {
			continue
		}
		for _, s := range stores {
			if s == smallest {
				continue
			}
			if !s.has(id) {
				continue outer
			}
		}
		out = append(out, id)
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Each calls fn for every live entity holding a component of the tag, in
// ascending id order.
func (w *World) Each(typeTag string, fn func(EntityID, Component)) {
	for _, id := range w.Query(typeTag) {
		if c, ok := w.GetComponent(id, typeTag); ok {
			fn(id, c)
		}
	}
}
