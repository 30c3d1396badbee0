// Package orm holds the model-handle abstraction the repositories delegate to.
// A model handle knows how to fetch, insert, find, mutate and destroy records of one entity type.
// Backends live in subpackages (sqlmodel, objectmodel).
package orm

import (
	"context"
	"time"
)

// Fields is a dynamic field map used to create or mutate a record.
// Keys are column names; values are checked by the entity's Schema before they reach the store.
type Fields map[string]any

// Scanner is satisfied by *sql.Row, *sql.Rows and the JSON record reader of the object backend.
type Scanner interface {
	Scan(dest ...any) error
}

// Model is the capability a repository consumes.
type Model[T any, ID comparable] interface {
	// All returns every record of the entity. Order is whatever the store yields.
	All(ctx context.Context) ([]T, error)

	// Insert builds a new entity from fields, persists it and returns the stored record,
	// identifier included.
	Insert(ctx context.Context, fields Fields) (*T, error)

	// Find returns the record with the given identifier, or nil without error when there is none.
	Find(ctx context.Context, id ID) (*T, error)

	// Update applies fields to entity and saves it. It reports whether a record was written.
	Update(ctx context.Context, entity *T, fields Fields) (bool, error)

	// Destroy deletes the record with the given identifier and reports whether one was removed.
	Destroy(ctx context.Context, id ID) (bool, error)
}

// Schema describes how an entity maps onto stored columns.
type Schema[T any, ID comparable] struct {
	// Name is the table name or the object key prefix.
	Name string
	// PrimaryKey is the identifier column.
	PrimaryKey string
	// Columns lists the persisted non-key columns in the order used by Values and Scan.
	Columns []string
	// Fillable lists the columns that may be mass-assigned from Fields.
	Fillable []string
	// UpdatedColumn is written on every update when Touch is set.
	UpdatedColumn string

	// NewID generates an identifier before insert. When nil the store assigns it.
	NewID func() ID
	GetID func(*T) ID
	SetID func(*T, ID)

	// Fill applies guarded fields to the entity, converting and validating each value.
	Fill func(*T, Fields) error
	// Values returns the column values aligned with Columns.
	Values func(*T) []any
	// Scan hydrates an entity from PrimaryKey followed by Columns.
	Scan func(Scanner) (*T, error)
	// Touch stamps timestamps. creating is true on insert.
	Touch func(t *T, now time.Time, creating bool)
	// Validate checks the entity is complete before it is written.
	Validate func(*T) error
}

// Guard rejects any key that is not fillable.
func (s Schema[T, ID]) Guard(fields Fields) error {
	for key := range fields {
		if !s.fillable(key) {
			return &ValidationError{Field: key, Reason: "is not mass assignable"}
		}
	}
	return nil
}

func (s Schema[T, ID]) fillable(key string) bool {
	for _, f := range s.Fillable {
		if f == key {
			return true
		}
	}
	return false
}

// Apply guards, fills, touches and validates entity in that order.
// Backends call it before writing so both share the same assignment rules.
func (s Schema[T, ID]) Apply(entity *T, fields Fields, now time.Time, creating bool) error {
	if err := s.Guard(fields); err != nil {
		return err
	}
	if s.Fill != nil {
		if err := s.Fill(entity, fields); err != nil {
			return err
		}
	}
	if s.Touch != nil {
		s.Touch(entity, now, creating)
	}
	if s.Validate != nil {
		return s.Validate(entity)
	}
	return nil
}

// Row returns the column values of entity keyed by column name, primary key included.
func (s Schema[T, ID]) Row(entity *T) map[string]any {
	vals := s.Values(entity)
	row := make(map[string]any, len(vals)+1)
	row[s.PrimaryKey] = s.GetID(entity)
	for i, col := range s.Columns {
		row[col] = vals[i]
	}
	return row
}
