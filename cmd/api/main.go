package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"userapi/docs"
	"userapi/internal/config"
	"userapi/internal/container"
	handlers "userapi/internal/http/handler"
	"userapi/internal/http/middleware"
	"userapi/internal/logger"
	"userapi/internal/otel"
	"userapi/internal/provider"
	"userapi/internal/service"
)

// @title User API
// @version 1.0
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	lg, err := logger.New(cfg.Env, map[string]any{"service": "userapi", "env": cfg.Env})
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer lg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, "userapi", lg)
	if err != nil {
		lg.Fatalw("tracing_init_failed", "error", err)
	}

	// Connect to the configured store and migrate it when AUTO_MIGRATE is on
	backend, err := provider.Open(ctx, cfg, lg)
	if err != nil {
		lg.Fatalw("store_open_failed", "driver", cfg.Store.Driver, "error", err)
	}
	defer backend.Close()

	// Repositories are resolved from the container on every service call
	c := container.New()
	provider.RegisterRepositories(c, backend)
	userSvc := service.NewUserService(service.FromContainer(c))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	promMiddleware, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		lg.Fatalw("metrics_init_failed", "error", err)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          handlers.ErrorHandler(),
		DisableStartupMessage: cfg.Env == "prod",
	})

	// Register global middleware
	app.Use(otelfiber.Middleware())
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// Structured request logs with a request-scoped logger in the user context
	app.Use(middleware.Logger(lg))
	app.Use(promMiddleware.Handler())

	handlers.RegisterRoutes(app, backend, userSvc, reg)

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	go func() {
		<-ctx.Done()
		lg.Infow("shutdown_started")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			lg.Errorw("http_shutdown_failed", "error", err)
		}
	}()

	addr := ":" + cfg.Port
	lg.Infow("http_listening", "addr", addr, "store", cfg.Store.Driver)
	if err := app.Listen(addr); err != nil && !errors.Is(err, context.Canceled) {
		lg.Errorw("http_listen_failed", "error", err)
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracing(flushCtx); err != nil {
		lg.Errorw("tracing_shutdown_failed", "error", err)
	}
}
