package main

import (
	"fmt"
	"os"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"ComplaintDesk/internal/bootstrap"
	"ComplaintDesk/internal/config"
	"ComplaintDesk/internal/pkg/logger"
	"ComplaintDesk/pkg/routes"
)

func main() {
	found, envErr := bootstrap.Loadenv()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	switch {
	case envErr != nil:
		logger.Warn("could not read .env file", zap.Error(envErr))
	case !found:
		logger.Info("no .env file found, using system environment variables")
	}

	app := fx.New(
		fx.Supply(cfg),
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger.L()}
		}),
		fx.StartTimeout(cfg.Mongo.ConnectTimeout+cfg.Server.ShutdownTimeout),
		fx.StopTimeout(cfg.Server.ShutdownTimeout),
		routes.EchoModules,
	)
	app.Run()
}
