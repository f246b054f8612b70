package diagnostics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/nulzo/translation-router/internal/store"
	"github.com/nulzo/translation-router/internal/store/model"
	"github.com/nulzo/translation-router/internal/translate"
)

type memoryRepo struct {
	mu       sync.Mutex
	attempts []model.Attempt
	txs      int
	fail     error
}

func (m *memoryRepo) Attempts() store.AttemptRepository { return m }

func (m *memoryRepo) WithTx(ctx context.Context, fn func(repo store.Repository) error) error {
	m.mu.Lock()
	m.txs++
	m.mu.Unlock()
	return fn(m)
}

func (m *memoryRepo) Close() error { return nil }

func (m *memoryRepo) Log(ctx context.Context, a *model.Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.attempts = append(m.attempts, *a)
	return nil
}

func (m *memoryRepo) Recent(ctx context.Context, limit int) ([]model.Attempt, error) {
	return nil, nil
}

func (m *memoryRepo) ByRequest(ctx context.Context, id string) ([]model.Attempt, error) {
	return nil, nil
}

func (m *memoryRepo) Summary(ctx context.Context) ([]model.ProviderSummary, error) {
	return nil, nil
}

func (m *memoryRepo) snapshot() ([]model.Attempt, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Attempt(nil), m.attempts...), m.txs
}

func TestLogRecorder(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := NewLogRecorder(zap.New(core))

	r.Record(Event{RequestID: "r1", Provider: "deepl", Tier: 1, Attempt: 1, Outcome: OutcomeSkipped, Err: translate.ErrMissingCredentials})
	r.Record(Event{RequestID: "r1", Provider: "google", Tier: 2, Attempt: 2, Outcome: OutcomeFailure,
		Err: &translate.ProviderError{Kind: translate.KindAuthentication}, Elapsed: 30 * time.Millisecond})
	r.Record(Event{RequestID: "r1", Provider: "libre", Tier: 3, Attempt: 3, Outcome: OutcomeSuccess, Chunks: 2, Keys: 10})

	entries := logs.All()
	require.Len(t, entries, 3)

	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "provider skipped", entries[0].Message)

	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "authentication", entries[1].ContextMap()["error_kind"])

	assert.Equal(t, zapcore.InfoLevel, entries[2].Level)
	assert.Equal(t, "libre", entries[2].ContextMap()["provider"])
	assert.Equal(t, int64(2), entries[2].ContextMap()["chunks"])
	assert.Equal(t, "fallback", entries[2].LoggerName)
}

func TestMulti(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	repo := &memoryRepo{}
	ing := NewIngestor(zap.NewNop(), repo)
	ing.Start(context.Background())

	m := Multi{NewLogRecorder(zap.New(core)), ing, Nop{}}
	m.Record(Event{RequestID: "r", Provider: "p", Outcome: OutcomeSuccess})
	ing.Stop()

	attempts, _ := repo.snapshot()
	assert.Len(t, attempts, 1)
	assert.Equal(t, 1, logs.Len())
}

func TestIngestor_FlushesOnBatchSize(t *testing.T) {
	repo := &memoryRepo{}
	ing := NewIngestor(zap.NewNop(), repo, WithBatchSize(2), WithFlushInterval(time.Hour))
	ing.Start(context.Background())

	ing.Record(Event{RequestID: "r", Provider: "a", Outcome: OutcomeFailure, Err: errors.New("x"), Elapsed: 1500 * time.Millisecond})
	ing.Record(Event{RequestID: "r", Provider: "b", Outcome: OutcomeSuccess})

	assert.Eventually(t, func() bool {
		attempts, _ := repo.snapshot()
		return len(attempts) == 2
	}, time.Second, 5*time.Millisecond)

	attempts, txs := repo.snapshot()
	assert.Equal(t, 1, txs, "batch written in one transaction")
	assert.Equal(t, "unknown", attempts[0].ErrorKind)
	assert.Equal(t, "x", attempts[0].ErrorMessage)
	assert.Equal(t, int64(1500), attempts[0].LatencyMS)
	assert.NotEmpty(t, attempts[0].ID)
	assert.False(t, attempts[0].CreatedAt.IsZero())

	ing.Stop()
}

func TestIngestor_FlushesOnTicker(t *testing.T) {
	repo := &memoryRepo{}
	ing := NewIngestor(zap.NewNop(), repo, WithFlushInterval(10*time.Millisecond))
	ing.Start(context.Background())
	defer ing.Stop()

	ing.Record(Event{RequestID: "r", Provider: "a", Outcome: OutcomeSuccess})
	assert.Eventually(t, func() bool {
		attempts, _ := repo.snapshot()
		return len(attempts) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestIngestor_DropsWhenFull(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	ing := NewIngestor(zap.New(core), &memoryRepo{}, WithBufferSize(1))

	ing.Record(Event{RequestID: "1"})
	ing.Record(Event{RequestID: "2"})
	assert.Equal(t, 1, logs.FilterMessage("usage buffer full, dropping event").Len())
}

func TestIngestor_ContextCancelDrains(t *testing.T) {
	repo := &memoryRepo{}
	ctx, cancel := context.WithCancel(context.Background())
	ing := NewIngestor(zap.NewNop(), repo, WithFlushInterval(time.Hour))

	ing.Record(Event{RequestID: "r", Provider: "a"})
	ing.Record(Event{RequestID: "r", Provider: "b"})
	cancel()
	ing.Start(ctx)
	<-ing.done

	attempts, _ := repo.snapshot()
	assert.Len(t, attempts, 2)
}

func TestIngestor_PersistErrorIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	ing := NewIngestor(zap.New(core), &memoryRepo{fail: errors.New("disk full")})
	ing.Start(context.Background())
	ing.Record(Event{RequestID: "r"})
	ing.Stop()

	assert.Equal(t, 1, logs.Len())
}

func TestIngestor_RecordAfterStopIsDropped(t *testing.T) {
	repo := &memoryRepo{}
	ing := NewIngestor(zap.NewNop(), repo)
	ing.Start(context.Background())

	ing.Record(Event{RequestID: "before", Provider: "a"})
	ing.Stop()

	assert.NotPanics(t, func() {
		ing.Record(Event{RequestID: "after", Provider: "a"})
	})
	ing.Stop()

	attempts, _ := repo.snapshot()
	require.Len(t, attempts, 1)
	assert.Equal(t, "before", attempts[0].RequestID)
}

func TestIngestor_StopWithoutStart(t *testing.T) {
	ing := NewIngestor(zap.NewNop(), &memoryRepo{})

	stopped := make(chan struct{})
	go func() {
		ing.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked on a writer that never started")
	}
	ing.Start(context.Background())
	assert.NotPanics(t, func() { ing.Record(Event{RequestID: "r"}) })
}
