package v1

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nulzo/translation-router/internal/server/problem"
	"github.com/nulzo/translation-router/internal/store"
)

const maxAttemptsLimit = 500

type UsageHandler struct {
	translator Translator
	// repo is nil when the usage store is disabled.
	repo store.Repository
}

func NewUsageHandler(t Translator, repo store.Repository) *UsageHandler {
	return &UsageHandler{translator: t, repo: repo}
}

// Stats returns the in-process counters and, with a store, the persisted
// per-provider summary.
//
// GET /v1/stats
func (h *UsageHandler) Stats(c *gin.Context) {
	resp := gin.H{
		"providers":  h.translator.Stats(),
		"cache_size": h.translator.CacheSize(),
	}

	if h.repo != nil {
		summary, err := h.repo.Attempts().Summary(c.Request.Context())
		if err != nil {
			_ = c.Error(problem.Internal("Failed to fetch usage summary", problem.WithLog(err)))
			return
		}
		resp["history"] = summary
	}

	c.JSON(http.StatusOK, resp)
}

// Attempts lists recorded provider attempts, newest first, or the attempts
// of one request when ?request_id= is given.
//
// GET /v1/attempts
func (h *UsageHandler) Attempts(c *gin.Context) {
	if h.repo == nil {
		_ = c.Error(problem.ServiceUnavailable("The usage store is disabled."))
		return
	}

	if id := c.Query("request_id"); id != "" {
		attempts, err := h.repo.Attempts().ByRequest(c.Request.Context(), id)
		if err != nil {
			_ = c.Error(problem.Internal("Failed to fetch attempts", problem.WithLog(err)))
			return
		}
		if len(attempts) == 0 {
			_ = c.Error(problem.NotFound("No attempts recorded for request " + id))
			return
		}
		c.JSON(http.StatusOK, gin.H{"object": "list", "data": attempts})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 || limit > maxAttemptsLimit {
		_ = c.Error(problem.BadRequest("Invalid 'limit' parameter, expected 1-" + strconv.Itoa(maxAttemptsLimit)))
		return
	}

	attempts, err := h.repo.Attempts().Recent(c.Request.Context(), limit)
	if err != nil {
		_ = c.Error(problem.Internal("Failed to fetch attempts", problem.WithLog(err)))
		return
	}
	c.JSON(http.StatusOK, gin.H{"object": "list", "data": attempts})
}
