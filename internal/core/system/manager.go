package system

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ErrDuplicateSystem is returned when registering a system whose name is
// already taken.
var ErrDuplicateSystem = errors.New("system: duplicate system")

// SystemError records one system's failure during a pass. Failures are
// aggregated and reported after the pass so a faulty plugin degrades the
// frame instead of freezing it.
type SystemError struct {
	System string
	Err    error
}

func (e SystemError) Error() string {
	return fmt.Sprintf("system %q: %v", e.System, e.Err)
}

func (e SystemError) Unwrap() error { return e.Err }

type pendingOp struct {
	add    System
	remove string
}

// Manager owns the ordered system list and drives the per-frame update.
// Systems run in registration order, synchronously, on the calling
// goroutine. Registration from plugin code during an in-progress pass is
// deferred to the end of that pass so the list never changes size under
// iteration.
type Manager struct {
	systems  []System
	byName   map[string]System
	pending  []pendingOp
	updating bool
	log      *zap.Logger
}

func NewManager(log *zap.Logger) *Manager {
	return &Manager{
		systems: make([]System, 0, 16),
		byName:  make(map[string]System, 16),
		log:     log,
	}
}

// AddSystem appends the system to the ordered list. Mid-pass registration
// takes effect at the end of the current pass.
func (m *Manager) AddSystem(s System) error {
	if m.registered(s.Name()) {
		return fmt.Errorf("%w: %q", ErrDuplicateSystem, s.Name())
	}
	if m.updating {
		m.pending = append(m.pending, pendingOp{add: s})
		return nil
	}
	m.register(s)
	return nil
}

// GetSystem looks up a registered system by name. Mid-pass additions
// resolve only after the pass that queued them completes.
func (m *Manager) GetSystem(name string) (System, bool) {
	s, ok := m.byName[name]
	return s, ok
}

// RemoveSystem detaches the named system and reports whether it was
// registered. Mid-pass removal takes effect at the end of the current
// pass; the in-flight pass still runs it.
func (m *Manager) RemoveSystem(name string) bool {
	if _, ok := m.byName[name]; !ok {
		return false
	}
	if m.updating {
		m.pending = append(m.pending, pendingOp{remove: name})
		delete(m.byName, name)
		return true
	}
	m.unregister(name)
	return true
}

// Systems returns the names of registered systems in execution order.
func (m *Manager) Systems() []string {
	names := make([]string, len(m.systems))
	for i, s := range m.systems {
		names[i] = s.Name()
	}
	return names
}

// UpdateAll runs every registered system's Update in registration order.
// A failing or panicking system never prevents later systems from running;
// failures are collected and returned after the pass.
func (m *Manager) UpdateAll(dt time.Duration) []SystemError {
	m.updating = true
	var failures []SystemError
	for _, s := range m.systems {
		if err := m.safeUpdate(s, dt); err != nil {
			failures = append(failures, SystemError{System: s.Name(), Err: err})
		}
	}
	m.updating = false
	m.applyPending()
	return failures
}

func (m *Manager) safeUpdate(s System, dt time.Duration) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			m.log.Error("system panic recovered",
				zap.String("system", s.Name()),
				zap.Any("panic", rec),
			)
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return s.Update(dt)
}

func (m *Manager) registered(name string) bool {
	if _, ok := m.byName[name]; ok {
		return true
	}
	for _, op := range m.pending {
		if op.add != nil && op.add.Name() == name {
			return true
		}
	}
	return false
}

func (m *Manager) register(s System) {
	m.systems = append(m.systems, s)
	m.byName[s.Name()] = s
}

func (m *Manager) unregister(name string) {
	delete(m.byName, name)
	for i, s := range m.systems {
		if s.Name() == name {
			m.systems = append(m.systems[:i], m.systems[i+1:]...)
			return
		}
	}
}

func (m *Manager) applyPending() {
	for _, op := range m.pending {
		if op.add != nil {
			m.register(op.add)
			continue
		}
		for i, s := range m.systems {
			if s.Name() == op.remove {
				m.systems = append(m.systems[:i], m.systems[i+1:]...)
				break
			}
		}
	}
	m.pending = m.pending[:0]
}
