package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nulzo/translation-router/internal/server/problem"
)

// ErrorHandler renders the last error attached by a handler. Problems are
// written as-is; anything else becomes a generic 500.
func ErrorHandler(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err

		var p *problem.Problem
		if errors.As(err, &p) {
			if p.Log != nil {
				logger.Warn("request failed",
					zap.Int("status", p.Status),
					zap.String("path", c.Request.URL.Path),
					zap.Error(p.Log),
				)
			}
			if p.Instance == "" {
				p.Instance = c.Request.URL.Path
			}
			c.AbortWithStatusJSON(p.Status, p)
			return
		}

		logger.Error("unhandled error", zap.String("path", c.Request.URL.Path), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, problem.Internal(
			"An unexpected error occurred.",
			problem.WithInstance(c.Request.URL.Path),
		))
	}
}
