// Package render translates ECS component state into calls against an
// external visual representation. The kernel never learns what that
// representation is; it only shuttles opaque handles between the renderer
// strategy and its per-entity cache.
package render

import (
	"errors"
	"fmt"

	"github.com/orbitforge/studio/internal/core/ecs"
)

// Handle is an opaque visual handle owned by a renderer. The render system
// caches it per entity and passes it back on the next frame.
type Handle any

// Renderer is the strategy a graphics plugin supplies for one component
// type. Name must be unique across the registry; Priority breaks ties
// when several renderers claim the same component type (higher wins,
// first registered wins among equals).
type Renderer interface {
	Name() string
	Priority() int

	// ComponentType returns the type tag this renderer claims.
	ComponentType() string

	// CreateOrUpdate builds or refreshes the visual for the component.
	// prev is nil on the first call for an entity; afterwards it is the
	// handle returned previously.
	CreateOrUpdate(c ecs.Component, prev Handle) (Handle, error)

	// Dispose releases the visual. Called exactly once per cached handle
	// when the owning component disappears or the renderer is
	// unregistered.
	Dispose(h Handle) error
}

// ErrDuplicateRenderer is returned when registering a renderer whose name
// is already taken.
var ErrDuplicateRenderer = errors.New("render: duplicate renderer")

// EntityError records one entity's render failure during a frame.
// Failures are aggregated; one broken visual never aborts the rest of the
// frame.
type EntityError struct {
	Entity   ecs.EntityID
	Renderer string
	Err      error
}

func (e EntityError) Error() string {
	return fmt.Sprintf("render entity %d via %q: %v", e.Entity, e.Renderer, e.Err)
}

func (e EntityError) Unwrap() error { return e.Err }

// RendererInfo is one registry entry in DebugInfo, in resolution order.
type RendererInfo struct {
	Name     string
	Priority int
}

// DebugInfo is a pure snapshot of the registry. No side effects.
type DebugInfo struct {
	RendererCount int
	Renderers     []RendererInfo
}
