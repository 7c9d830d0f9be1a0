package system

import "time"

// System is a per-frame behavior unit. Systems borrow the World for the
// duration of Update and own no entities themselves.
//
// Name must be unique among registered systems; it is the handle for
// lookup and removal. Update returning an error marks the pass as degraded
// but never stops later systems in the same pass.
type System interface {
	Name() string
	Update(dt time.Duration) error
}
