// Package bootstrap initializes the process-wide runtime shared by the CLI commands.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"inertus/internal/cache"
	"inertus/internal/config"
	"inertus/internal/database"
	"inertus/internal/middleware"
	"inertus/internal/observability"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SkipRedis leaves Redis unset, for commands that only touch the database.
	SkipRedis bool
}

// Runtime owns the connections opened by InitRuntime.
type Runtime struct {
	Config *config.Config
	DB     *gorm.DB
	Redis  *redis.Client

	shutdownTracing func(context.Context) error
}

// InitRuntime configures logging and tracing, then connects to the database and, when
// reachable, Redis.
func InitRuntime(cfg *config.Config, opts Options) (*Runtime, error) {
	if err := middleware.InitLogger(cfg.Env, cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("logger init failed: %w", err)
	}

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    "inertus",
		ServiceVersion: "1.0.0",
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("tracing init failed: %w", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		_ = shutdownTracing(context.Background())
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	rt := &Runtime{Config: cfg, DB: db, shutdownTracing: shutdownTracing}
	if !opts.SkipRedis {
		// nil when unreachable
		rt.Redis = cache.InitRedis(cfg.RedisURL)
	}
	return rt, nil
}

// Close releases everything InitRuntime opened.
func (r *Runtime) Close(ctx context.Context) error {
	var errs []error
	if r.Redis != nil {
		if err := r.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if err := database.Close(r.DB); err != nil {
		errs = append(errs, fmt.Errorf("close database: %w", err))
	}
	if r.shutdownTracing != nil {
		if err := r.shutdownTracing(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown tracing: %w", err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		middleware.Logger.Error("runtime shutdown incomplete", zap.Error(err))
		return err
	}
	_ = middleware.Logger.Sync()
	return nil
}
