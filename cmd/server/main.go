package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/JonMunkholm/coltype/internal/config"
	"github.com/JonMunkholm/coltype/internal/core"
	"github.com/JonMunkholm/coltype/internal/logging"
	"github.com/JonMunkholm/coltype/internal/store"
	"github.com/JonMunkholm/coltype/internal/tabular"
	"github.com/JonMunkholm/coltype/internal/web"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	st, closeStore, err := openStore(ctx, &cfg.Database)
	if err != nil {
		slog.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	core.UploadTimeout = cfg.Upload.Timeout
	service := core.NewService(st, tabular.Load, core.ServiceOptions{
		Analyze: core.AnalyzeOptions{
			Workers: cfg.Infer.Workers,
			Infer:   core.InferOptions{CategoryMaxRatio: cfg.Infer.CategoryMaxRatio},
		},
		CacheSize: cfg.Upload.CacheSize,
		Limiter:   core.NewAnalysisLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime),
	})

	go service.StartRetentionScheduler(ctx, core.RetentionConfig{
		MaxAge:        cfg.Retain.MaxAge,
		CheckInterval: cfg.Retain.CheckInterval,
	})

	server := web.NewServer(service, cfg)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Wait for in-flight analyses so their datasets are persisted
		if status := service.LimiterStatus(); status.Active > 0 {
			slog.Info("waiting for analyses to complete", "active", status.Active)
			if err := service.WaitForAnalyses(shutdownCtx); err != nil {
				slog.Warn("analyses did not complete in time", "error", err)
			} else {
				slog.Info("all analyses completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// openStore connects to PostgreSQL when DATABASE_URL is set and falls back
// to process memory otherwise.
func openStore(ctx context.Context, cfg *config.DatabaseConfig) (store.Store, func(), error) {
	if !cfg.UsesDatabase() {
		slog.Warn("DATABASE_URL not set, datasets are kept in memory only")
		return store.NewMemoryStore(), func() {}, nil
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, nil, err
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	if u, err := url.Parse(cfg.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}

	pg := store.NewPgStore(pool)
	if err := pg.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return pg, pool.Close, nil
}
