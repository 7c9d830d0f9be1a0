package render

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/orbitforge/studio/internal/core/ecs"
	"github.com/orbitforge/studio/internal/core/event"
	"go.uber.org/zap"
)

// SystemName is the render system's registration name.
const SystemName = "render"

type entry struct {
	renderer Renderer
	seq      int // registration order, tie-break for equal priorities
}

type bindingKey struct {
	entity ecs.EntityID
	tag    string
}

// binding caches the visual handle for one entity/tag pair. It holds the
// renderer itself, not just its name, so Dispose still works after the
// renderer has been unregistered.
type binding struct {
	renderer Renderer
	handle   Handle
}

// System synchronizes renderable component state into external visuals
// once per frame. It is itself an ECS system; register it after any system
// that mutates renderable components so the frame renders post-update
// state. That ordering is the caller's responsibility.
//
// Registry mutation during an in-progress frame is deferred to the end of
// that frame: the in-flight frame resolves against the registry as it was
// when the frame started.
type System struct {
	world         *ecs.World
	bus           *event.Bus
	byName        map[string]*entry
	bindings      map[bindingKey]*binding
	pendingAdd    []Renderer
	pendingRemove []string
	nextSeq       int
	updating      bool
	log           *zap.Logger
}

func NewSystem(world *ecs.World, bus *event.Bus, log *zap.Logger) *System {
	return &System{
		world:    world,
		bus:      bus,
		byName:   make(map[string]*entry, 8),
		bindings: make(map[bindingKey]*binding, 64),
		log:      log,
	}
}

func (s *System) Name() string { return SystemName }

// RegisterRenderer adds a renderer to the registry. Mid-frame registration
// takes effect on the next frame.
func (s *System) RegisterRenderer(r Renderer) error {
	if s.registered(r.Name()) {
		return fmt.Errorf("%w: %q", ErrDuplicateRenderer, r.Name())
	}
	if s.updating {
		s.pendingAdd = append(s.pendingAdd, r)
		return nil
	}
	s.register(r)
	return nil
}

// UnregisterRenderer removes the named renderer and reports whether it was
// registered. The in-flight frame, if any, is unaffected; on the next
// frame its cached handles are disposed and it is never invoked again.
func (s *System) UnregisterRenderer(name string) bool {
	if _, ok := s.byName[name]; !ok {
		return false
	}
	if s.updating {
		for _, pending := range s.pendingRemove {
			if pending == name {
				return false
			}
		}
		s.pendingRemove = append(s.pendingRemove, name)
		return true
	}
	s.unregister(name)
	return true
}

// DebugInfo returns the registry contents in resolution order. Pure
// introspection, no side effects.
func (s *System) DebugInfo() DebugInfo {
	ordered := s.resolutionOrder()
	infos := make([]RendererInfo, len(ordered))
	for i, e := range ordered {
		infos[i] = RendererInfo{
			Name:     e.renderer.Name(),
			Priority: e.renderer.Priority(),
		}
	}
	return DebugInfo{
		RendererCount: len(ordered),
		Renderers:     infos,
	}
}

// Update runs one synchronization frame: every entity holding a claimed
// component type gets its visual created or refreshed through the
// highest-priority claiming renderer, and handles whose component,
// entity, or renderer disappeared are disposed exactly once. Components
// with no claiming renderer are skipped silently; renderers are additive
// plugins and absence is expected. Per-entity failures are collected and
// returned joined after the frame.
func (s *System) Update(_ time.Duration) error {
	s.updating = true
	var failures []error
	seen := make(map[bindingKey]bool, len(s.bindings))

	for _, tag := range s.claimedTags() {
		r := s.resolve(tag)
		for _, id := range s.world.Query(tag) {
			c, ok := s.world.GetComponent(id, tag)
			if !ok {
				continue
			}
			key := bindingKey{entity: id, tag: tag}
			b := s.bindings[key]
			var prev Handle
			if b != nil {
				if b.renderer.Name() == r.Name() {
					prev = b.handle
				} else {
					// Another renderer took over the tag; the old
					// visual goes away before the new one is built.
					s.disposeBinding(key, b, &failures)
					b = nil
				}
			}
			h, err := s.safeCreateOrUpdate(r, c, prev)
			if err != nil {
				failures = append(failures, EntityError{Entity: id, Renderer: r.Name(), Err: err})
				if b != nil {
					seen[key] = true // keep the old handle for next frame
				}
				continue
			}
			s.bindings[key] = &binding{renderer: r, handle: h}
			seen[key] = true
		}
	}

	// Sweep handles whose component was removed, whose entity died, or
	// whose renderer no longer claims them. Exactly one Dispose per
	// orphaned handle; a leaked visual is a contract violation.
	for _, key := range s.sortedBindingKeys() {
		if seen[key] {
			continue
		}
		s.disposeBinding(key, s.bindings[key], &failures)
	}

	s.updating = false
	s.applyPending()
	return errors.Join(failures...)
}

func (s *System) safeCreateOrUpdate(r Renderer, c ecs.Component, prev Handle) (h Handle, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			s.log.Error("renderer panic recovered",
				zap.String("renderer", r.Name()),
				zap.Any("panic", rec),
			)
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return r.CreateOrUpdate(c, prev)
}

func (s *System) disposeBinding(key bindingKey, b *binding, failures *[]error) {
	delete(s.bindings, key)
	if err := s.safeDispose(b.renderer, b.handle); err != nil {
		*failures = append(*failures, EntityError{Entity: key.entity, Renderer: b.renderer.Name(), Err: err})
	}
}

func (s *System) safeDispose(r Renderer, h Handle) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			s.log.Error("renderer panic recovered in dispose",
				zap.String("renderer", r.Name()),
				zap.Any("panic", rec),
			)
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return r.Dispose(h)
}

// claimedTags returns the component type tags with at least one registered
// renderer, sorted for deterministic frame order.
func (s *System) claimedTags() []string {
	set := make(map[string]bool, len(s.byName))
	for _, e := range s.byName {
		set[e.renderer.ComponentType()] = true
	}
	tags := make([]string, 0, len(set))
	for tag := range set {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// resolve picks the renderer for a tag: highest priority, then earliest
// registration.
func (s *System) resolve(tag string) Renderer {
	var best *entry
	for _, e := range s.byName {
		if e.renderer.ComponentType() != tag {
			continue
		}
		if best == nil ||
			e.renderer.Priority() > best.renderer.Priority() ||
			(e.renderer.Priority() == best.renderer.Priority() && e.seq < best.seq) {
			best = e
		}
	}
	return best.renderer
}

func (s *System) resolutionOrder() []*entry {
	ordered := make([]*entry, 0, len(s.byName))
	for _, e := range s.byName {
		ordered = append(ordered, e)
	}
	sort.Slice(ordered, func(i, j int) bool {
		pi, pj := ordered[i].renderer.Priority(), ordered[j].renderer.Priority()
		if pi != pj {
			return pi > pj
		}
		return ordered[i].seq < ordered[j].seq
	})
	return ordered
}

func (s *System) sortedBindingKeys() []bindingKey {
	keys := make([]bindingKey, 0, len(s.bindings))
	for key := range s.bindings {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].entity != keys[j].entity {
			return keys[i].entity < keys[j].entity
		}
		return keys[i].tag < keys[j].tag
	})
	return keys
}

func (s *System) registered(name string) bool {
	if _, ok := s.byName[name]; ok {
		return true
	}
	for _, r := range s.pendingAdd {
		if r.Name() == name {
			return true
		}
	}
	return false
}

func (s *System) register(r Renderer) {
	s.byName[r.Name()] = &entry{renderer: r, seq: s.nextSeq}
	s.nextSeq++
	if s.bus != nil {
		event.Emit(s.bus, event.RendererRegistered{Name: r.Name(), Priority: r.Priority()})
	}
}

func (s *System) unregister(name string) {
	delete(s.byName, name)
	if s.bus != nil {
		event.Emit(s.bus, event.RendererUnregistered{Name: name})
	}
}

func (s *System) applyPending() {
	for _, name := range s.pendingRemove {
		s.unregister(name)
	}
	s.pendingRemove = s.pendingRemove[:0]
	for _, r := range s.pendingAdd {
		s.register(r)
	}
	s.pendingAdd = s.pendingAdd[:0]
}
