package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/hongminglow/storefront/internal/config"
	"github.com/hongminglow/storefront/internal/observability"
	"github.com/hongminglow/storefront/internal/server"
	"github.com/hongminglow/storefront/internal/storage"
	"github.com/hongminglow/storefront/internal/storage/memory"
	"github.com/hongminglow/storefront/internal/storage/postgres"
)

func main() {
	envLoaded := godotenv.Load() == nil

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.ServiceName, cfg.Env, cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	if !envLoaded {
		logger.Info("no .env file found; relying on existing environment")
	}

	ctx := context.Background()
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("init storage", zap.String("driver", cfg.StorageDriver), zap.Error(err))
	}
	defer store.Close()

	srv := server.New(cfg, store, logger)

	go func() {
		logger.Info("storefront listening", zap.String("addr", cfg.HTTPAddress()), zap.String("storage", cfg.StorageDriver))
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server error", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Error("graceful shutdown error", zap.Error(err))
	}
}

func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (storage.Store, error) {
	if cfg.StorageDriver == config.DriverMemory {
		mem := memory.New()
		if cfg.SeedDemoProducts {
			if err := mem.Seed(ctx); err != nil {
				return nil, err
			}
			logger.Info("seeded demo products")
		}
		return mem, nil
	}
	pg, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	return pg, nil
}
