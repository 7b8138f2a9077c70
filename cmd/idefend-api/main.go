package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/PabloGalante/idefend/internal/bootstrap"
	"github.com/PabloGalante/idefend/internal/config"
	"github.com/PabloGalante/idefend/internal/observability"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		observability.Logger().Fatalw("invalid configuration", "error", err)
	}
	observability.Configure(cfg.LogLevel)
	defer observability.Sync()

	log := observability.Logger()
	log.Infow("starting IDefend API",
		"mode", cfg.Mode,
		"provider", cfg.Provider,
		"profile_backend", cfg.ProfileBackend)

	app, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		log.Fatalw("failed to initialize", "error", err)
	}
	defer app.Close()

	if err := app.Serve(ctx, cfg.Port); err != nil {
		log.Errorw("server stopped", "error", err)
		os.Exit(1)
	}
}
