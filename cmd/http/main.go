package main

import (
	"context"
	"expvar"
	"log"
	"runtime"

	"github.com/phantom-chat/phantom/internal/infrastructure/configs"
	"github.com/phantom-chat/phantom/internal/infrastructure/logging"
	"github.com/phantom-chat/phantom/internal/infrastructure/metrics"
	"github.com/phantom-chat/phantom/internal/infrastructure/registry"
	"github.com/phantom-chat/phantom/internal/infrastructure/sweeper"
	"github.com/phantom-chat/phantom/internal/infrastructure/tracing"
	"github.com/phantom-chat/phantom/internal/infrastructure/ws"
	"github.com/phantom-chat/phantom/internal/presentation/api"
	"github.com/phantom-chat/phantom/internal/presentation/handler/health"
	"github.com/phantom-chat/phantom/internal/presentation/handler/rooms"
)

const (
	serviceName = "phantom-relay"
)

func main() {
	tracerCfg := tracing.NewDefaultConfig(serviceName)

	sh, err := tracing.InitTracer(tracerCfg)
	if err != nil {
		log.Fatalf("Failed to initialize the tracer: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer sh(ctx)

	configPath := configs.DetermineConfigPath()
	cfg, err := configs.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.NewLogger(cfg.Logger)

	m := metrics.New()

	roomRegistry := registry.New()
	groupManager := ws.NewGroupManager()

	wsCore := ws.NewCore(roomRegistry, groupManager, logger, m)
	go wsCore.Run()

	roomSweeper := sweeper.New(roomRegistry, wsCore, cfg.Room.SweepInterval, logger)
	go roomSweeper.Run(ctx)

	roomHandler := rooms.NewHandler(roomRegistry, groupManager, wsCore, cfg.Room, logger, m)
	healthHandler := health.NewHandler()

	app := api.NewApplication(*cfg, *roomHandler, *healthHandler, logger)

	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	mux := app.Mount()
	if err := app.Run(mux); err != nil {
		logger.Fatalf("server error: %v", err)
	}
}
