// Package translate defines the provider capability every translation
// backend implements, and the shared client that gives each backend its
// cache, rate limiter and retry executor.
package translate

import (
	"context"
)

// Provider translates batches of strings through one third-party service.
type Provider interface {
	Name() string
	// Tier is the configured priority; lower values are tried first.
	Tier() int
	// IsAvailable is true when the provider is enabled and has credentials.
	IsAvailable() bool
	// BatchSize is the maximum number of texts per TranslateBatch call.
	BatchSize() int
	// TranslateBatch returns exactly one translation per text, in order.
	TranslateBatch(ctx context.Context, texts []string, source, target string) ([]string, error)
	Stats() StatsSnapshot
}
