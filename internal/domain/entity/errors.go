package entity

import (
	"errors"
	"fmt"
)

// Sentinels shared across the domain. HTTP handlers map these onto
// status codes; everything else wraps them with %w.
var (
	// ErrNotFound marks lookups whose subject does not exist, such as an
	// unknown ticker symbol.
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidInput marks input rejected before any upstream call.
	ErrInvalidInput = errors.New("invalid input")
)

// ValidationError reports which field of a request failed validation and
// why. It is safe to echo back to API clients.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}
