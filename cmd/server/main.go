package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/exp/slog"
	"golang.org/x/sync/errgroup"

	"stockkeeper/internal/app/server/api"
	"stockkeeper/internal/app/server/config"
	"stockkeeper/internal/domain/session"
	"stockkeeper/internal/domain/sync"
	"stockkeeper/internal/infrastructure/storage/postgres"
	"stockkeeper/internal/utils/logger"
)

func main() {
	cfg := config.MustLoad()
	log := logger.New(cfg.Env, logger.WithLevel(cfg.Logger.LogLevel))

	if err := run(cfg, log); err != nil {
		log.Error("server stopped with error", logger.Err(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storage, err := postgres.New(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer storage.Close()

	devices := postgres.NewDeviceRepository(storage.Pool(), log)
	documents := postgres.NewDocumentRepository(storage.Pool(), log)

	syncService := sync.NewService(documents, log)
	router := api.New(api.Services{
		Session:   session.NewService(devices, cfg.Server.RegistrationSecret, log),
		Sync:      syncService,
		Documents: syncService,
		DB:        storage.Pool(),
	}, log)

	srv := &http.Server{
		Addr:              cfg.Server.RunAddress,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server started", slog.String("address", cfg.Server.RunAddress), slog.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
