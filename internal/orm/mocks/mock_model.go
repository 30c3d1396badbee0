package mocks

import (
	"context"

	"userapi/internal/orm"

	"github.com/stretchr/testify/mock"
)

type MockModel[T any, ID comparable] struct {
	mock.Mock
}

func (m *MockModel[T, ID]) All(ctx context.Context) ([]T, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]T), args.Error(1)
}

func (m *MockModel[T, ID]) Insert(ctx context.Context, fields orm.Fields) (*T, error) {
	args := m.Called(ctx, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*T), args.Error(1)
}

func (m *MockModel[T, ID]) Find(ctx context.Context, id ID) (*T, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*T), args.Error(1)
}

func (m *MockModel[T, ID]) Update(ctx context.Context, entity *T, fields orm.Fields) (bool, error) {
	args := m.Called(ctx, entity, fields)
	return args.Bool(0), args.Error(1)
}

func (m *MockModel[T, ID]) Destroy(ctx context.Context, id ID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}
