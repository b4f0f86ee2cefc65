package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrBadRequest       = errors.New("bad request")
	ErrDuplicateRequest = errors.New("request with this idempotency key was already applied")
)
