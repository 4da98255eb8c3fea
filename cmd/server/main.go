package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/reportkit/dashboard/internal/config"
	"github.com/reportkit/dashboard/internal/export"
	"github.com/reportkit/dashboard/internal/server"
	"github.com/reportkit/dashboard/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := buildLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	store, err := buildStore(cfg.Store)
	if err != nil {
		logger.Fatal("failed to initialise store", zap.Error(err))
	}

	gateway := storage.NewGateway(store)
	exporter := export.New(export.NewChartRasterizer(), logger)

	rootDir, err := os.Getwd()
	if err != nil {
		logger.Fatal("failed to get working directory", zap.Error(err))
	}

	srv := server.NewServer(gateway, exporter, logger, rootDir)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      srv.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("shutting down", zap.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			logger.Error("graceful shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("starting test case dashboard",
		zap.String("addr", cfg.Server.Addr),
		zap.String("store", storeName(cfg.Store)))
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server failed", zap.Error(err))
	}
	logger.Info("server stopped")
}

func buildStore(cfg config.StoreConfig) (storage.Store, error) {
	switch cfg.Driver {
	case "", "memory":
		return storage.NewMemoryStore(), nil
	case "mysql":
		return storage.NewMySQLStore(cfg.MySQLDSN)
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis unreachable: %w", err)
		}
		return storage.NewRedisStore(rdb), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}

func storeName(cfg config.StoreConfig) string {
	if cfg.Driver == "" {
		return "memory"
	}
	return cfg.Driver
}

func buildLogger(cfg config.LoggerConfig) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("bad log level %q: %w", cfg.Level, err)
	}
	zc.Level = level
	return zc.Build()
}
