package repository

import (
	"userapi/internal/model"
	"userapi/internal/orm"
)

// UserRepository is the repository for model.User.
type UserRepository struct {
	*EntityRepository[model.User, string]
}

// NewUserRepository creates a UserRepository around a user model handle.
func NewUserRepository(users orm.Model[model.User, string]) *UserRepository {
	return &UserRepository{EntityRepository: NewEntityRepository(users)}
}

var _ Repository[model.User, string] = (*UserRepository)(nil)
