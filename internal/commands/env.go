package commands

import (
	"context"

	"go.uber.org/zap"

	"userapi/internal/config"
	"userapi/internal/container"
	"userapi/internal/logger"
	"userapi/internal/provider"
	"userapi/internal/service"
)

// Env is what a command runs against.
type Env struct {
	Users   service.UserService
	Backend provider.Backend
	Log     *zap.SugaredLogger
}

// Opener builds the Env for one invocation.
type Opener func(ctx context.Context) (*Env, error)

// Open reads the environment configuration and connects to the configured store.
func Open(ctx context.Context) (*Env, error) {
	cfg := config.Load()
	log, err := logger.New(cfg.Env, map[string]any{"service": "userctl"})
	if err != nil {
		return nil, err
	}

	b, err := provider.Open(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	c := container.New()
	provider.RegisterRepositories(c, b)

	return &Env{
		Users:   service.NewUserService(service.FromContainer(c)),
		Backend: b,
		Log:     log,
	}, nil
}

// Close releases the store.
func (e *Env) Close() error {
	_ = e.Log.Sync()
	return e.Backend.Close()
}
