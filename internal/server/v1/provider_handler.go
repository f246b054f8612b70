package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type ProviderHandler struct {
	translator Translator
}

func NewProviderHandler(t Translator) *ProviderHandler {
	return &ProviderHandler{translator: t}
}

// List returns the configured providers in base order. With ?target= it also
// returns the order a request for that language would try them in.
//
// GET /v1/providers
func (h *ProviderHandler) List(c *gin.Context) {
	resp := gin.H{
		"object": "list",
		"data":   h.translator.Providers(),
	}
	if target := c.Query("target"); target != "" {
		resp["order"] = h.translator.Order(target)
	}
	c.JSON(http.StatusOK, resp)
}
