package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound      = errors.New("record not found")
	ErrInvalidCursor = errors.New("invalid page cursor")
	ErrClosed        = errors.New("store closed")
)
