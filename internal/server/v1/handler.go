// Package v1 holds the HTTP handlers of the /v1 API.
package v1

import (
	"context"

	"github.com/nulzo/translation-router/internal/router"
	"github.com/nulzo/translation-router/internal/translate"
)

// Translator is the part of *router.Router the handlers depend on.
type Translator interface {
	Translate(ctx context.Context, req *translate.Request) (*translate.Result, error)
	Providers() []router.ProviderInfo
	Order(target string) []string
	Stats() []translate.StatsSnapshot
	CacheSize() int
}
