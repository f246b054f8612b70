package diagnostics

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nulzo/translation-router/internal/store"
	"github.com/nulzo/translation-router/internal/store/model"
)

// Ingestor persists events asynchronously. Record never blocks; when the
// buffer is full the event is dropped with a warning.
type Ingestor struct {
	logger    *zap.Logger
	repo      store.Repository
	events    chan *model.Attempt
	batchSize int
	flushTime time.Duration

	mu      sync.RWMutex
	started bool
	stopped bool
	quit    chan struct{}
	done    chan struct{}
}

type IngestorOption func(*Ingestor)

func WithBatchSize(n int) IngestorOption {
	return func(i *Ingestor) { i.batchSize = n }
}

func WithFlushInterval(d time.Duration) IngestorOption {
	return func(i *Ingestor) { i.flushTime = d }
}

func WithBufferSize(n int) IngestorOption {
	return func(i *Ingestor) { i.events = make(chan *model.Attempt, n) }
}

func NewIngestor(logger *zap.Logger, repo store.Repository, opts ...IngestorOption) *Ingestor {
	if logger == nil {
		logger = zap.NewNop()
	}
	i := &Ingestor{
		logger:    logger,
		repo:      repo,
		events:    make(chan *model.Attempt, 10000),
		batchSize: 50,
		flushTime: 5 * time.Second,
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Record queues an event for the writer. Events recorded after Stop are
// dropped.
func (i *Ingestor) Record(e Event) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.stopped {
		i.logger.Debug("usage ingestor stopped, dropping event", zap.String("request_id", e.RequestID))
		return
	}
	select {
	case i.events <- toAttempt(e):
	default:
		i.logger.Warn("usage buffer full, dropping event", zap.String("request_id", e.RequestID))
	}
}

// Start launches the background writer. Calls after the first, or after
// Stop, do nothing.
func (i *Ingestor) Start(ctx context.Context) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.started || i.stopped {
		return
	}
	i.started = true
	go i.worker(ctx)
}

// Stop flushes buffered events and waits for the writer to exit.
func (i *Ingestor) Stop() {
	i.mu.Lock()
	if !i.stopped {
		i.stopped = true
		close(i.quit)
	}
	started := i.started
	i.mu.Unlock()

	if started {
		<-i.done
	}
}

func (i *Ingestor) worker(ctx context.Context) {
	defer close(i.done)

	batch := make([]*model.Attempt, 0, i.batchSize)
	ticker := time.NewTicker(i.flushTime)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		err := i.repo.WithTx(context.Background(), func(repo store.Repository) error {
			for _, a := range batch {
				if err := repo.Attempts().Log(context.Background(), a); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			i.logger.Error("failed to persist translation attempts", zap.Int("count", len(batch)), zap.Error(err))
		}
		batch = batch[:0]
	}

	drain := func() {
		for {
			select {
			case a := <-i.events:
				batch = append(batch, a)
				if len(batch) >= i.batchSize {
					flush()
				}
			default:
				flush()
				return
			}
		}
	}

	for {
		select {
		case a := <-i.events:
			batch = append(batch, a)
			if len(batch) >= i.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-i.quit:
			drain()
			return
		case <-ctx.Done():
			drain()
			return
		}
	}
}

func toAttempt(e Event) *model.Attempt {
	a := &model.Attempt{
		ID:             uuid.NewString(),
		RequestID:      e.RequestID,
		Provider:       e.Provider,
		Tier:           e.Tier,
		Outcome:        string(e.Outcome),
		ErrorKind:      e.ErrorKind(),
		SourceLanguage: e.SourceLanguage,
		TargetLanguage: e.TargetLanguage,
		KeyCount:       e.Keys,
		ChunkCount:     e.Chunks,
		LatencyMS:      e.Elapsed.Milliseconds(),
		CreatedAt:      e.At,
	}
	if e.Err != nil {
		a.ErrorMessage = e.Err.Error()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	return a
}
