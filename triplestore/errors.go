package triplestore

import (
	"errors"
	"fmt"
)

// Common store errors.
var (
	// ErrEmptySubject is returned when a fact has no subject or predicate.
	ErrEmptySubject = errors.New("fact has empty subject or predicate")
)

// UpdateError is returned when an update could not be instantiated. The
// store is left exactly as it was before the update.
type UpdateError struct {
	// Clause is "insert" or "delete".
	Clause string
	Err    error
}

func (e *UpdateError) Error() string {
	return fmt.Sprintf("%s clause: %v", e.Clause, e.Err)
}

func (e *UpdateError) Unwrap() error { return e.Err }
