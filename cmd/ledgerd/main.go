package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"ledgerbook/internal/backend"
	"ledgerbook/internal/cli"
	"ledgerbook/internal/core"
	apphttp "ledgerbook/internal/http"
	"ledgerbook/internal/ledger"
	"ledgerbook/internal/session"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	var srv *apphttp.Server
	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if srv == nil {
			return
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	})

	st, cleanup, err := backend.BuildStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to build store", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := cleanup(); err != nil {
			logger.Error("Cleanup error", "error", err)
		}
	}()

	svc := ledger.NewService(st, core.DefaultCategories())
	auth := session.NewAuthenticator(cfg.AppPassword, cfg.Users())
	sessions := session.NewRegistry(cfg.SessionTTL)

	srv = apphttp.NewServer(":"+cfg.Port, svc, st, auth, sessions)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	logger.Info("Starting ledgerbook server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
