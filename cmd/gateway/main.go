package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/tjfontaine/edge-content-gateway/internal/pkg/config"
	"github.com/tjfontaine/edge-content-gateway/internal/telemetry"
	"github.com/tjfontaine/edge-content-gateway/pkg/gateway"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Telemetry.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	shutdownTracer, err := telemetry.InitTracer(telemetry.TracerConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Tracing,
		SampleRatio: cfg.Telemetry.SampleRatio,
	}, logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	gw, err := gateway.New(
		gateway.WithConfig(cfg),
		gateway.WithLogger(logger),
	)
	if err != nil {
		logger.Error("failed to create gateway", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := gw.Start(ctx); err != nil {
		logger.Error("failed to start gateway", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("gateway running",
		slog.String("store", cfg.Store.Type),
		slog.String("generator", cfg.Generator.Type),
		slog.Bool("rate_limit", cfg.RateLimit.Enabled),
		slog.Bool("tracing", cfg.Telemetry.Tracing))

	exitCode := 0
	if err := gw.Wait(ctx); err != nil {
		logger.Error("server failed", slog.String("error", err.Error()))
		exitCode = 1
	} else {
		logger.Info("shutdown signal received, stopping gateway")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := gw.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
		exitCode = 1
	}

	logger.Info("gateway shutdown complete")
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}
