package service

import (
	"context"
	"errors"
	"fmt"

	"userapi/internal/container"
	"userapi/internal/model"
	"userapi/internal/orm"
	"userapi/internal/repository"
)

var (
	ErrIDRequired = errors.New("id is required")
	ErrNotFound   = errors.New("user not found")
)

// UserListResult is the service-level DTO for the user listing.
type UserListResult struct {
	Items []model.User `json:"data" yaml:"data"`
	Total int          `json:"total" yaml:"total"`
}

// UserService defines the use cases for handling users.
type UserService interface {
	// List returns every user and the count.
	List(ctx context.Context) (*UserListResult, error)

	// Create registers a user from the given fields. Only name, email and password are assignable.
	Create(ctx context.Context, data orm.Fields) (*model.User, error)

	// Get returns a single user by its ID.
	Get(ctx context.Context, id string) (*model.User, error)

	// Update applies data to the user and returns the stored result.
	Update(ctx context.Context, id string, data orm.Fields) (*model.User, error)

	// Delete removes a user by ID.
	Delete(ctx context.Context, id string) error
}

// RepositoryResolver yields the user repository for one call.
type RepositoryResolver func() (repository.Repository[model.User, string], error)

// FromContainer resolves *repository.UserRepository from c on every call.
func FromContainer(c *container.Container) RepositoryResolver {
	return func() (repository.Repository[model.User, string], error) {
		repo, err := container.Resolve[*repository.UserRepository](c)
		if err != nil {
			return nil, err
		}
		return repo, nil
	}
}

// userService is a concrete implementation of UserService.
type userService struct {
	users RepositoryResolver
}

// NewUserService constructs a new UserService.
func NewUserService(users RepositoryResolver) UserService {
	return &userService{users: users}
}

func (s *userService) repo() (repository.Repository[model.User, string], error) {
	r, err := s.users()
	if err != nil {
		return nil, fmt.Errorf("user repository: %w", err)
	}
	return r, nil
}

func (s *userService) List(ctx context.Context) (*UserListResult, error) {
	r, err := s.repo()
	if err != nil {
		return nil, err
	}
	users, err := r.All(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []model.User{}
	}
	return &UserListResult{Items: users, Total: len(users)}, nil
}

func (s *userService) Create(ctx context.Context, data orm.Fields) (*model.User, error) {
	r, err := s.repo()
	if err != nil {
		return nil, err
	}
	return r.Create(ctx, data)
}

func (s *userService) Get(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	r, err := s.repo()
	if err != nil {
		return nil, err
	}
	u, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrNotFound
	}
	return u, nil
}

// Update saves data and reads the user back, so the result carries store-assigned timestamps.
func (s *userService) Update(ctx context.Context, id string, data orm.Fields) (*model.User, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	r, err := s.repo()
	if err != nil {
		return nil, err
	}
	ok, err := r.Update(ctx, data, id)
	if err != nil {
		if errors.Is(err, orm.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	// deleted between the lookup and the save
	if !ok {
		return nil, ErrNotFound
	}

	u, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrNotFound
	}
	return u, nil
}

func (s *userService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	r, err := s.repo()
	if err != nil {
		return err
	}
	ok, err := r.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}
