package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ecrec/storefront-auth/internal/bootstrap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := bootstrap.InitLogger()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "starting storefront-auth",
		"dev", cfg.IsDev,
		"skip_auth", cfg.Auth.SkipAuth,
		"auth_service", cfg.Auth.ServiceURL,
		"addr", cfg.HTTP.Addr,
	)

	app, err := bootstrap.BuildApp(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := app.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close app failed", "error", cerr)
		}
	}()

	return bootstrap.RunServer(ctx, cfg.HTTP.Addr, app.Handler, logger)
}
