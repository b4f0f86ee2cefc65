package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/okian/rivalry/internal/adapters/repository"
)

// Sentinel kinds for service errors.
var (
	ErrNotStarted      = errors.New("service not started")
	ErrValidation      = errors.New("validation failed")
	ErrNoContest       = errors.New("rivalry has no open contest")
	ErrNothingToUndo   = errors.New("rivalry has no resolved contest")
	ErrInvalidStanding = errors.New("standing cannot move past the top tier")
	ErrGameMismatch    = errors.New("tier list belongs to another game")
	ErrEmptyRoster     = errors.New("game has no fighters")
)

// ValidationError carries the field errors a write was rejected with.
type ValidationError struct {
	Fields []repository.FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, ", "))
}

// Unwrap makes errors.Is(err, ErrValidation) hold.
func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(fields ...repository.FieldError) error {
	return &ValidationError{Fields: fields}
}

// outcome turns field errors into a ValidationError.
func outcome[T any](out repository.Outcome[T], err error) (T, error) {
	if err != nil {
		var zero T
		return zero, err
	}
	if !out.OK() {
		var zero T
		return zero, invalid(out.Errors...)
	}
	return out.Data, nil
}
