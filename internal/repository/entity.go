package repository

import (
	"context"
	"fmt"

	"userapi/internal/orm"
)

// EntityRepository implements Repository by forwarding every call to one model handle.
type EntityRepository[T any, ID comparable] struct {
	model orm.Model[T, ID]
}

// NewEntityRepository binds a repository to model for its whole lifetime.
func NewEntityRepository[T any, ID comparable](model orm.Model[T, ID]) *EntityRepository[T, ID] {
	return &EntityRepository[T, ID]{model: model}
}

var _ Repository[struct{}, int64] = (*EntityRepository[struct{}, int64])(nil)

func (r *EntityRepository[T, ID]) All(ctx context.Context) ([]T, error) {
	return r.model.All(ctx)
}

func (r *EntityRepository[T, ID]) Create(ctx context.Context, data orm.Fields) (*T, error) {
	return r.model.Insert(ctx, data)
}

func (r *EntityRepository[T, ID]) Update(ctx context.Context, data orm.Fields, id ID) (bool, error) {
	entity, err := r.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if entity == nil {
		return false, fmt.Errorf("update %v: %w", id, orm.ErrNotFound)
	}
	return r.model.Update(ctx, entity, data)
}

func (r *EntityRepository[T, ID]) Delete(ctx context.Context, id ID) (bool, error) {
	return r.model.Destroy(ctx, id)
}

func (r *EntityRepository[T, ID]) Get(ctx context.Context, id ID) (*T, error) {
	return r.model.Find(ctx, id)
}
