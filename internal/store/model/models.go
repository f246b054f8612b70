package model

import "time"

// Attempt is one provider try within a translation request. Skipped
// providers are recorded too so the fallback trail can be rebuilt.
type Attempt struct {
	ID             string    `db:"id" json:"id"`
	RequestID      string    `db:"request_id" json:"request_id"`
	Provider       string    `db:"provider" json:"provider"`
	Tier           int       `db:"tier" json:"tier"`
	Outcome        string    `db:"outcome" json:"outcome"` // 'success', 'failure', 'skipped'
	ErrorKind      string    `db:"error_kind" json:"error_kind,omitempty"`
	ErrorMessage   string    `db:"error_message" json:"error_message,omitempty"`
	SourceLanguage string    `db:"source_language" json:"source_language"`
	TargetLanguage string    `db:"target_language" json:"target_language"`
	KeyCount       int       `db:"key_count" json:"key_count"`
	ChunkCount     int       `db:"chunk_count" json:"chunk_count"`
	LatencyMS      int64     `db:"latency_ms" json:"latency_ms"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// ProviderSummary aggregates the attempts of one provider.
type ProviderSummary struct {
	Provider       string  `db:"provider" json:"provider"`
	Attempts       int64   `db:"attempts" json:"attempts"`
	Successes      int64   `db:"successes" json:"successes"`
	Failures       int64   `db:"failures" json:"failures"`
	Skipped        int64   `db:"skipped" json:"skipped"`
	KeysTranslated int64   `db:"keys_translated" json:"keys_translated"`
	AvgLatencyMS   float64 `db:"avg_latency_ms" json:"avg_latency_ms"`
}
