// Package store defines the persistence contract for translation usage
// history.
package store

import (
	"context"

	"github.com/nulzo/translation-router/internal/store/model"
)

// Repository is the main contract for the data layer.
type Repository interface {
	Attempts() AttemptRepository

	// transaction support
	WithTx(ctx context.Context, fn func(repo Repository) error) error

	Close() error
}

type AttemptRepository interface {
	// Log stores one provider attempt.
	Log(ctx context.Context, attempt *model.Attempt) error
	// Recent returns the last N attempts, newest first.
	Recent(ctx context.Context, limit int) ([]model.Attempt, error)
	// ByRequest returns the attempts of one translation request in attempt order.
	ByRequest(ctx context.Context, requestID string) ([]model.Attempt, error)
	// Summary aggregates attempts per provider.
	Summary(ctx context.Context) ([]model.ProviderSummary, error)
}
