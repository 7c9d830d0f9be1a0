package ecs

// Component is a typed data record attached to an entity. Components carry
// no behavior; systems own all logic.
//
// Type returns the stable tag identifying the component kind. An entity
// holds at most one component per tag. Clone must return a value-independent
// copy: mutating the clone never reaches the original.
type Component interface {
	Type() string
	Clone() Component
}

// componentStore maps entity ids to component instances for one type tag.
type componentStore struct {
	data map[EntityID]Component
}

func newComponentStore() *componentStore {
	return &componentStore{
		data: make(map[EntityID]Component, 64),
	}
}

func (s *componentStore) set(id EntityID, c Component) {
	s.data[id] = c
}

func (s *componentStore) get(id EntityID) (Component, bool) {
	c, ok := s.data[id]
	return c, ok
}

func (s *componentStore) remove(id EntityID) bool {
	if _, ok := s.data[id]; !ok {
		return false
	}
	delete(s.data, id)
	return true
}

func (s *componentStore) has(id EntityID) bool {
	_, ok := s.data[id]
	return ok
}

func (s *componentStore) len() int {
	return len(s.data)
}
