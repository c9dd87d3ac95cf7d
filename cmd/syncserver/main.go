package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/Slowper/emmawebsitempa-sub001/internal/conf"
	"github.com/Slowper/emmawebsitempa-sub001/internal/engine"
	"github.com/Slowper/emmawebsitempa-sub001/internal/repo"
	"github.com/Slowper/emmawebsitempa-sub001/internal/resource"
	"github.com/Slowper/emmawebsitempa-sub001/internal/server"
	"github.com/Slowper/emmawebsitempa-sub001/internal/upstream"
	"github.com/Slowper/emmawebsitempa-sub001/pkg/db"
	"github.com/Slowper/emmawebsitempa-sub001/pkg/logger"
	"github.com/Slowper/emmawebsitempa-sub001/pkg/snapshot"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	defer logger.Sync()

	// .env 可选，生产环境直接使用环境变量
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Fatal("❌ .env error", zap.Error(err))
	}

	configPath := os.Getenv("CMS_CONFIG")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}
	cfg, err := conf.LoadConfig(configPath)
	if err != nil {
		logger.Fatal("❌ LoadConfig error", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var clientOpts []upstream.Option
	if cfg.Upstream.RetryMaxElapsed > 0 {
		clientOpts = append(clientOpts, upstream.WithRetry(cfg.Upstream.RetryMaxElapsed))
	}
	client := upstream.NewClient(cfg.Upstream.BaseURL, cfg.Upstream.Timeout, clientOpts...)

	opts := resource.Options{
		IDStrategy: resource.IDStrategy(cfg.Sync.IDStrategy),
		Tombstones: cfg.Sync.Tombstones,
		Logger:     logger.Named("resource"),
	}

	if cfg.Sync.Snapshot && cfg.Redis.Addr != "" {
		rdb, err := db.NewRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Warn("⚠️ Redis unavailable, snapshot disabled", zap.Error(err))
		} else {
			defer rdb.Close()
			opts.Snapshot = snapshot.NewRedisStore(rdb, cfg.Redis.Key)
		}
	}

	agg := resource.NewAggregator(client, opts)
	if opts.Snapshot != nil {
		if n, err := agg.Restore(ctx); err != nil {
			logger.Warn("⚠️ Snapshot restore failed", zap.Error(err))
		} else {
			logger.Info("📦 Snapshot restored", zap.Int("resources", n))
		}
	}

	var schedOpts []engine.Option
	if cfg.Database.DSN != "" {
		conn, err := db.OpenGorm(cfg.Database.Driver, cfg.Database.DSN, cfg.Database.LogLevel, logger.Named("gorm"))
		if err != nil {
			logger.Fatal("❌ Database error", zap.Error(err))
		}
		jobs := repo.NewJobRepo(conn)
		if err := jobs.Migrate(ctx); err != nil {
			logger.Fatal("❌ Migrate error", zap.Error(err))
		}
		schedOpts = append(schedOpts, engine.WithRecorder(jobs))
	}

	srv := server.NewServer(cfg, agg, schedOpts...)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("🌐 CMS sync server running", zap.String("addr", cfg.Server.Port), zap.String("upstream", client.BaseURL()))
		errCh <- srv.Run(cfg.Server.Port)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Fatal("❌ Server error", zap.Error(err))
		}
	case <-ctx.Done():
		logger.Info("🛑 Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("❌ Shutdown error", zap.Error(err))
	}
}
