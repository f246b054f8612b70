package sqlite

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/nulzo/translation-router/internal/store"
	"github.com/nulzo/translation-router/internal/store/model"
)

// DB defines the interface for database operations (satisfied by *sqlx.DB and *sqlx.Tx)
type DB interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// SqliteRepository implements store.Repository
type SqliteRepository struct {
	db       *sqlx.DB // Required for starting new transactions
	executor DB       // Used for actual queries (can be *sqlx.DB or *sqlx.Tx)
}

func NewSqliteRepository(db *sqlx.DB) *SqliteRepository {
	return &SqliteRepository{
		db:       db,
		executor: db,
	}
}

func (r *SqliteRepository) Close() error {
	return r.db.Close()
}

func (r *SqliteRepository) WithTx(ctx context.Context, fn func(repo store.Repository) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	txRepo := &SqliteRepository{
		db:       r.db,
		executor: tx,
	}

	if err := fn(txRepo); err != nil {
		// attempt rollback, but prioritize original error
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

func (r *SqliteRepository) Attempts() store.AttemptRepository {
	return &attemptRepo{db: r.executor}
}

type attemptRepo struct {
	db DB
}

func (r *attemptRepo) Log(ctx context.Context, a *model.Attempt) error {
	query := `
	INSERT INTO translation_attempts (
		id, request_id, provider, tier, outcome, error_kind, error_message,
		source_language, target_language, key_count, chunk_count, latency_ms, created_at
	) VALUES (
		:id, :request_id, :provider, :tier, :outcome, :error_kind, :error_message,
		:source_language, :target_language, :key_count, :chunk_count, :latency_ms, :created_at
	)`
	_, err := r.db.NamedExecContext(ctx, query, a)
	return err
}

func (r *attemptRepo) Recent(ctx context.Context, limit int) ([]model.Attempt, error) {
	if limit <= 0 {
		limit = 50
	}
	attempts := []model.Attempt{}
	err := r.db.SelectContext(ctx, &attempts,
		`SELECT * FROM translation_attempts ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	return attempts, err
}

func (r *attemptRepo) ByRequest(ctx context.Context, requestID string) ([]model.Attempt, error) {
	attempts := []model.Attempt{}
	err := r.db.SelectContext(ctx, &attempts,
		`SELECT * FROM translation_attempts WHERE request_id = ? ORDER BY created_at ASC, rowid ASC`, requestID)
	return attempts, err
}

func (r *attemptRepo) Summary(ctx context.Context) ([]model.ProviderSummary, error) {
	query := `
	SELECT
		provider,
		COUNT(*) AS attempts,
		SUM(CASE WHEN outcome = 'success' THEN 1 ELSE 0 END) AS successes,
		SUM(CASE WHEN outcome = 'failure' THEN 1 ELSE 0 END) AS failures,
		SUM(CASE WHEN outcome = 'skipped' THEN 1 ELSE 0 END) AS skipped,
		SUM(CASE WHEN outcome = 'success' THEN key_count ELSE 0 END) AS keys_translated,
		COALESCE(AVG(CASE WHEN outcome != 'skipped' THEN latency_ms END), 0.0) AS avg_latency_ms
	FROM translation_attempts
	GROUP BY provider
	ORDER BY provider`

	summaries := []model.ProviderSummary{}
	err := r.db.SelectContext(ctx, &summaries, query)
	return summaries, err
}
