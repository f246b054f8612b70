// Package app wires configuration into a running translation router: the
// shared cache, the optional usage store and its ingestor, and the router.
package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/nulzo/translation-router/internal/cache"
	"github.com/nulzo/translation-router/internal/config"
	"github.com/nulzo/translation-router/internal/diagnostics"
	"github.com/nulzo/translation-router/internal/router"
	"github.com/nulzo/translation-router/internal/store"
	"github.com/nulzo/translation-router/internal/store/sqlite"

	// providers register themselves with the translate registry
	_ "github.com/nulzo/translation-router/internal/translate/deepl"
	_ "github.com/nulzo/translation-router/internal/translate/google"
	_ "github.com/nulzo/translation-router/internal/translate/libre"
	_ "github.com/nulzo/translation-router/internal/translate/openai"
)

type App struct {
	Config *config.Config
	Router *router.Router
	// Repo is nil unless the usage store is enabled.
	Repo store.Repository

	logger   *zap.Logger
	ingestor *diagnostics.Ingestor
	closers  []func() error
}

// New builds every component named by cfg. On error, whatever was already
// opened is closed again.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...router.Option) (_ *App, err error) {
	a := &App{Config: cfg, logger: logger}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	c, closeCache, err := cache.FromConfig(ctx, cfg.Cache, logger.Named("cache"))
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	a.closers = append(a.closers, closeCache)

	routerOpts := []router.Option{
		router.WithCache(c),
		router.WithLogger(logger),
	}

	if cfg.Store.Enabled {
		repo, err := sqlite.NewSQLiteStorage(cfg.Store.DSN, logger.Named("store"))
		if err != nil {
			return nil, fmt.Errorf("usage store: %w", err)
		}
		a.Repo = repo
		a.closers = append(a.closers, repo.Close)

		a.ingestor = diagnostics.NewIngestor(logger.Named("usage"), repo)
		a.ingestor.Start(context.Background())
		routerOpts = append(routerOpts, router.WithRecorder(a.ingestor))
	}

	rt, err := router.New(cfg.Router, append(routerOpts, opts...)...)
	if err != nil {
		return nil, err
	}
	a.Router = rt

	logger.Info("translation router ready",
		zap.Strings("order", rt.Order("")),
		zap.Bool("usage_store", a.Repo != nil),
		zap.Bool("redis_cache", cfg.Cache.Redis.Enabled),
	)
	return a, nil
}

// Close flushes pending usage events and releases the store and cache.
func (a *App) Close() error {
	if a.ingestor != nil {
		a.ingestor.Stop()
		a.ingestor = nil
	}

	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
