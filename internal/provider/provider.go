package provider

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"userapi/internal/config"
	"userapi/internal/container"
	"userapi/internal/database"
	"userapi/internal/database/migration"
	"userapi/internal/model"
	"userapi/internal/orm"
	"userapi/internal/orm/objectmodel"
	"userapi/internal/orm/sqlmodel"
	"userapi/internal/repository"
	"userapi/internal/storage"
)

// ErrNoBackend is returned when a Backend has neither a database nor an object store.
var ErrNoBackend = errors.New("no store configured")

// Backend is the store user records live in. Exactly one of DB or Objects is set.
type Backend struct {
	DB      *sql.DB
	Dialect database.Dialect
	Objects storage.Storage
	// HashCost is the bcrypt cost for assigned passwords.
	HashCost int
}

// Open connects to the store selected by cfg.Store.Driver and migrates SQL stores when
// cfg.Store.AutoMigrate is set.
func Open(ctx context.Context, cfg *config.AppConfig, log *zap.SugaredLogger) (Backend, error) {
	b := Backend{HashCost: cfg.Store.HashCost}

	var err error
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		b.Dialect = database.Postgres
		b.DB, err = database.NewPostgres(cfg.Database)
	case config.DriverSQLite:
		b.Dialect = database.SQLite
		b.DB, err = database.NewSQLite(cfg.SQLite)
	case config.DriverMinIO:
		b.Objects, err = storage.NewMinIO(cfg.MinIO)
	default:
		return b, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	if err != nil {
		return b, fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}
	log.Infow("store_opened", "driver", cfg.Store.Driver)

	if b.DB != nil && cfg.Store.AutoMigrate {
		if err := b.Migrate(ctx, log); err != nil {
			_ = b.Close()
			return b, err
		}
	}
	return b, nil
}

// Migrate creates the users table on SQL stores. Object stores need no schema.
func (b Backend) Migrate(ctx context.Context, log *zap.SugaredLogger) error {
	if b.DB == nil {
		return nil
	}
	return migration.EnsureMigrated(ctx, b.DB, b.Dialect, log)
}

// Ping checks the store is reachable.
func (b Backend) Ping(ctx context.Context) error {
	switch {
	case b.DB != nil:
		return b.DB.PingContext(ctx)
	case b.Objects != nil:
		return b.Objects.Ping(ctx)
	}
	return ErrNoBackend
}

// Close releases the database pool. The object store client holds nothing to release.
func (b Backend) Close() error {
	if b.DB != nil {
		return b.DB.Close()
	}
	return nil
}

// UserModel builds a fresh user model handle on b.
func UserModel(b Backend) (orm.Model[model.User, string], error) {
	schema := model.UserSchema(b.HashCost)
	switch {
	case b.DB != nil:
		return sqlmodel.New(b.DB, schema, sqlmodel.WithClassifier(b.Dialect.Classifier())), nil
	case b.Objects != nil:
		bucket, err := objectmodel.New(b.Objects, schema)
		if err != nil {
			return nil, err
		}
		return bucket, nil
	}
	return nil, ErrNoBackend
}

// RegisterRepositories binds the repositories to c. Every resolution of *repository.UserRepository
// gets a new repository around a new user model handle.
func RegisterRepositories(c *container.Container, b Backend) {
	container.Bind(c, func() (*repository.UserRepository, error) {
		users, err := UserModel(b)
		if err != nil {
			return nil, err
		}
		return repository.NewUserRepository(users), nil
	})
}
