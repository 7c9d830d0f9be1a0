package physics

import "errors"

var (
	// ErrStaleHandle is returned when a body handle references a removed
	// or never-issued body. Stale use indicates a dangling reference in a
	// calling system and fails loudly instead of no-opping.
	ErrStaleHandle = errors.New("physics: stale body handle")

	// ErrEngineNotReady is returned when body operations run before Init
	// has completed.
	ErrEngineNotReady = errors.New("physics: engine not initialized")

	// ErrUnsupportedOperation is returned when a transform write targets
	// a body whose backend does not implement MutableRigidBody.
	ErrUnsupportedOperation = errors.New("physics: operation not supported by body")
)
