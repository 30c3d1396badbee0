package orm

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound marks a lookup that matched no record.
	ErrNotFound = errors.New("record not found")
	// ErrValidation marks fields rejected before reaching the store.
	ErrValidation = errors.New("validation failed")
	// ErrConstraint marks a write rejected by a store constraint (unique, not null, check...).
	ErrConstraint = errors.New("constraint violation")
	// ErrPersistence marks any other store failure.
	ErrPersistence = errors.New("persistence failure")
)

// ValidationError reports a field that cannot be assigned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrValidation, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// ConstraintError wraps a driver error the store classified as a constraint violation.
type ConstraintError struct {
	Op  string
	Err error
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrConstraint, e.Op, e.Err)
}

func (e *ConstraintError) Unwrap() []error { return []error{ErrConstraint, e.Err} }

// PersistenceError wraps any other failure coming from the store.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrPersistence, e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() []error { return []error{ErrPersistence, e.Err} }

// Persistence wraps err as a PersistenceError unless it already carries an orm classification.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrConstraint) || errors.Is(err, ErrValidation) || errors.Is(err, ErrPersistence) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}
