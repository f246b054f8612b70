package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nulzo/translation-router/internal/router"
	"github.com/nulzo/translation-router/internal/server/problem"
	"github.com/nulzo/translation-router/internal/server/validator"
	"github.com/nulzo/translation-router/internal/translate"
)

// statusClientClosedRequest is the nginx convention for abandoned requests.
const statusClientClosedRequest = 499

type TranslateHandler struct {
	translator Translator
	validator  *validator.Validator
}

func NewTranslateHandler(t Translator, v *validator.Validator) *TranslateHandler {
	return &TranslateHandler{translator: t, validator: v}
}

// Translate runs one keyed batch through the fallback chain.
//
// POST /v1/translate
func (h *TranslateHandler) Translate(c *gin.Context) {
	var body TranslateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		_ = c.Error(problem.Validation(h.validator.ParseError(err)))
		return
	}

	res, err := h.translator.Translate(c.Request.Context(), body.toDomain())
	if err != nil {
		_ = c.Error(translateProblem(err))
		return
	}

	c.JSON(http.StatusOK, newResponse(body.TargetLanguage, res))
}

func translateProblem(err error) *problem.Problem {
	var failed *router.AllProvidersFailedError
	switch {
	case errors.As(err, &failed):
		return problem.BadGateway(
			"No translation provider could serve the request.",
			problem.WithType("urn:translation-router:problem:all-providers-failed"),
			problem.WithExtension("request_id", failed.RequestID),
			problem.WithExtension("trail", trail(failed.Failures)),
			problem.WithLog(err),
		)
	case errors.Is(err, translate.ErrInvalidRequest):
		return problem.BadRequest(err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return problem.New(http.StatusGatewayTimeout, "Gateway Timeout",
			"The translation did not finish in time.", problem.WithLog(err))
	case errors.Is(err, context.Canceled):
		return problem.New(statusClientClosedRequest, "Client Closed Request",
			"The request was abandoned.", problem.WithLog(err))
	default:
		return problem.Internal("Failed to translate the request.", problem.WithLog(err))
	}
}
