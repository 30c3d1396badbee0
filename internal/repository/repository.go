// Package repository contains the data access abstraction handed to application code.
// Repositories forward to an orm.Model and perform no recovery or translation of store errors.
package repository

import (
	"context"

	"userapi/internal/orm"
)

// Repository is the capability set every entity repository offers.
type Repository[T any, ID comparable] interface {
	// All returns every record in the backing store.
	All(ctx context.Context) ([]T, error)

	// Create persists a new record built from data and returns it with its identifier set.
	Create(ctx context.Context, data orm.Fields) (*T, error)

	// Update loads the record by id, applies data and saves it.
	// It fails with an error wrapping orm.ErrNotFound when id matches nothing.
	Update(ctx context.Context, data orm.Fields, id ID) (bool, error)

	// Delete removes the record by id. Deleting a missing id returns false and no error.
	Delete(ctx context.Context, id ID) (bool, error)

	// Get returns the record or nil when it does not exist.
	Get(ctx context.Context, id ID) (*T, error)
}
