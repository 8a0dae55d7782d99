package app

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/screenbalance/jitai-engine/internal/bootstrap"
	"github.com/screenbalance/jitai-engine/internal/config"
	"github.com/screenbalance/jitai-engine/internal/server"
	"github.com/screenbalance/jitai-engine/pkg/engine"
	"github.com/screenbalance/jitai-engine/pkg/store"
)

// App holds all application dependencies and manages the application
// lifecycle.
type App struct {
	cfg               *config.Config
	engine            *engine.Engine
	grpcServer        *server.GRPCServer
	metricsServer     *server.MetricsServer
	redisClient       *redis.Client
	shutdownTelemetry func(context.Context) error
}

// New creates and initializes a new application instance. Components are
// initialized in dependency order: Redis, engine (stores + tunables),
// servers, telemetry.
func New(ctx context.Context, cfg *config.Config, providers bootstrap.Providers) (*App, error) {
	logrus.Info("initializing application...")

	app := &App{cfg: cfg}

	client, err := store.InitClient(ctx, store.Options{
		Host:       cfg.RedisHost,
		Port:       cfg.RedisPort,
		Password:   cfg.RedisPassword,
		MaxRetries: cfg.RedisMaxRetries,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init Redis: %w", err)
	}
	app.redisClient = client

	eng, err := bootstrap.InitEngine(ctx, cfg.EngineConfigPath, client, providers)
	if err != nil {
		return nil, fmt.Errorf("failed to init engine: %w", err)
	}
	app.engine = eng

	app.grpcServer = server.NewGRPCServer(cfg.GRPCPort)
	if err := app.grpcServer.Setup(); err != nil {
		return nil, fmt.Errorf("failed to setup gRPC server: %w", err)
	}

	app.metricsServer = server.NewMetricsServer(cfg.MetricsPort, "/metrics")
	if err := app.metricsServer.Setup(); err != nil {
		return nil, fmt.Errorf("failed to setup metrics server: %w", err)
	}

	if cfg.OtelEnabled {
		shutdownTelemetry, err := server.SetupTelemetry(ctx, cfg.ServiceName, cfg.Environment, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to setup telemetry: %w", err)
		}
		app.shutdownTelemetry = shutdownTelemetry
	}

	logrus.Info("application initialized successfully")

	return app, nil
}

// Engine exposes the decision engine to the embedding host.
func (a *App) Engine() *engine.Engine {
	return a.engine
}
