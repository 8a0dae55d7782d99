package main

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/screenbalance/jitai-engine/internal/app"
	"github.com/screenbalance/jitai-engine/internal/bootstrap"
	"github.com/screenbalance/jitai-engine/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("invalid configuration: %v", err)
	}

	logrus.SetFormatter(&logrus.JSONFormatter{})
	level, _ := logrus.ParseLevel(cfg.LogLevel)
	logrus.SetLevel(level)

	ctx := context.Background()

	// The standalone binary runs on in-memory providers; embedding hosts
	// construct the app with their own usage, goal and delivery providers.
	application, err := app.New(ctx, cfg, bootstrap.Providers{})
	if err != nil {
		logrus.Fatalf("failed to initialize application: %v", err)
	}

	if err := application.Run(ctx); err != nil {
		logrus.Fatalf("application error: %v", err)
	}
}
