package server

import (
	"github.com/nulzo/translation-router/internal/server/middleware"
	v1 "github.com/nulzo/translation-router/internal/server/v1"
	"github.com/nulzo/translation-router/internal/server/validator"
)

func (s *Server) SetupRoutes() {
	if s.config.Tracing.Enabled {
		s.router.Use(middleware.Tracing(s.config.Tracing.ServiceName))
	}
	s.router.Use(middleware.ErrorHandler(s.logger))

	healthHandler := v1.NewHealthHandler(s.translator)
	s.router.GET("/health", healthHandler.Health)

	limiter := middleware.NewRateLimiter(s.config.Server.RequestsPerSecond, s.config.Server.Burst, s.logger)

	api := s.router.Group("/v1")
	api.Use(middleware.Auth(s.config.Server.APIKeys))
	api.Use(limiter.Middleware())
	{
		translateHandler := v1.NewTranslateHandler(s.translator, validator.New())
		api.POST("/translate", translateHandler.Translate)

		providerHandler := v1.NewProviderHandler(s.translator)
		api.GET("/providers", providerHandler.List)

		usageHandler := v1.NewUsageHandler(s.translator, s.repo)
		api.GET("/stats", usageHandler.Stats)
		api.GET("/attempts", usageHandler.Attempts)
	}
}
