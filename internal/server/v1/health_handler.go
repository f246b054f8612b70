package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	translator Translator
}

func NewHealthHandler(t Translator) *HealthHandler {
	return &HealthHandler{translator: t}
}

// Health reports 503 when no provider is currently available.
//
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	available := 0
	for _, p := range h.translator.Providers() {
		if p.Available && !p.Skipped {
			available++
		}
	}

	status, state := http.StatusOK, "ok"
	if available == 0 {
		status, state = http.StatusServiceUnavailable, "degraded"
	}
	c.JSON(status, gin.H{
		"status":              state,
		"available_providers": available,
	})
}
