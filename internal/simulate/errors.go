package simulate

import "errors"

var (
	ErrInvalidConfig = errors.New("invalid simulation config")
	// ErrStatus wraps an unexpected HTTP status from the service.
	ErrStatus = errors.New("unexpected status")
	// ErrInvariant is returned by Run when a tier list ends up inconsistent.
	ErrInvariant = errors.New("tier list invariant violated")
)
