package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/wattshift/wattshift/pkg/devices"
	"github.com/wattshift/wattshift/pkg/log"
	"github.com/wattshift/wattshift/pkg/narrative"
	"github.com/wattshift/wattshift/pkg/optimizer"
	"github.com/wattshift/wattshift/pkg/savings"
	"github.com/wattshift/wattshift/pkg/server"
	"github.com/wattshift/wattshift/pkg/storage"
	"github.com/wattshift/wattshift/pkg/tariff"
	"github.com/wattshift/wattshift/pkg/validate"

	"github.com/levenlabs/go-lflag"
	"github.com/levenlabs/go-llog"
)

func main() {
	// init packages
	tariffs := tariff.Configured()
	db := storage.Configured()
	registry := devices.Configured()
	nar := narrative.Configured()
	savingsCfg := savings.Configured()
	validateCfg := validate.Configured()

	// init the optimizer and server
	opt := optimizer.Configured(tariffs, db, registry, nar, savingsCfg, validateCfg)
	srv := server.Configured(tariffs, opt, registry)

	// parse flags
	lflag.Configure()

	var level slog.Level
	// lflag automatically sets llog's level, but we need to set the slog level
	switch llog.GetLevel() {
	case llog.DebugLevel:
		level = slog.LevelDebug
	case llog.InfoLevel:
		level = slog.LevelInfo
	case llog.WarnLevel:
		level = slog.LevelWarn
	case llog.ErrorLevel:
		level = slog.LevelError
	default:
		panic(fmt.Errorf("unknown log level: %s", llog.GetLevel().String()))
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	slog.Debug("logger configured", slog.String("level", level.String()))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// if initialization inside lflag.Do failed, we wouldn't be here (panic)
	defer func() {
		if err := db.Close(); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to close storage", "error", err)
		}
		if err := registry.Close(); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to close device registry", "error", err)
		}
	}()

	// Run will block until the context is canceled or an error happens
	if err := srv.Run(ctx); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "server failed", "error", err)
		os.Exit(1)
	}
	log.Ctx(ctx).InfoContext(ctx, "server exited cleanly")
}
