// Package server exposes the translation router over HTTP.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nulzo/translation-router/internal/config"
	"github.com/nulzo/translation-router/internal/server/middleware"
	v1 "github.com/nulzo/translation-router/internal/server/v1"
	"github.com/nulzo/translation-router/internal/store"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	router     *gin.Engine
	config     *config.Config
	logger     *zap.Logger
	translator v1.Translator
	repo       store.Repository
}

// New builds the gin engine. repo may be nil when the usage store is off.
func New(cfg *config.Config, logger *zap.Logger, translator v1.Translator, repo store.Repository) *Server {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Logger(logger))

	s := &Server{
		router:     engine,
		config:     cfg,
		logger:     logger,
		translator: translator,
		repo:       repo,
	}

	s.SetupRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on the configured port until ctx is cancelled, then drains
// in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              net.JoinHostPort("", s.config.Server.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
