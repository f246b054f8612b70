package translate

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/nulzo/translation-router/internal/cache"
	"github.com/nulzo/translation-router/internal/config"
	"github.com/nulzo/translation-router/internal/resilience"
)

// BatchFunc performs one network call translating texts. It must return one
// string per input, in order.
type BatchFunc func(ctx context.Context, texts []string, source, target string) ([]string, error)

// Traits are the fixed limits of a provider implementation.
type Traits struct {
	// MaxBatch is the service's own per-request limit.
	MaxBatch int
	// RequiresKey marks services that cannot be called without an API key.
	RequiresKey bool
}

// Client implements Provider on top of a BatchFunc. Concrete providers embed
// it and supply the network call.
type Client struct {
	cfg       config.ProviderConfig
	batchSize int
	hasKey    bool

	call    BatchFunc
	retrier resilience.Retrier
	limiter *resilience.Limiter
	cache   cache.Cache
	stats   Stats
	log     *zap.Logger
}

func NewClient(cfg config.ProviderConfig, traits Traits, deps Deps, call BatchFunc) *Client {
	batch := cfg.BatchSize
	if traits.MaxBatch > 0 && (batch <= 0 || batch > traits.MaxBatch) {
		batch = traits.MaxBatch
	}
	if batch <= 0 {
		batch = 1
	}

	c := deps.Cache
	if c == nil {
		c = cache.Nop{}
	}
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Client{
		cfg:       cfg,
		batchSize: batch,
		hasKey:    !traits.RequiresKey || strings.TrimSpace(cfg.APIKey) != "",
		call:      call,
		retrier:   resilience.NewRetrier(cfg.MaxRetries, cfg.RetryInitialDelay, cfg.RetryMaxDelay, cfg.BackoffMultiplier),
		limiter:   resilience.NewLimiter(cfg.RateLimitPerSecond),
		cache:     c,
		log:       log.With(zap.String("provider", cfg.Name)),
	}
}

// HTTPClient returns deps.HTTPClient or a fresh client. Per-call deadlines
// come from the context, so the client itself has no timeout.
func HTTPClient(deps Deps) *http.Client {
	if deps.HTTPClient != nil {
		return deps.HTTPClient
	}
	return &http.Client{}
}

func (c *Client) Name() string { return c.cfg.Name }

func (c *Client) Tier() int { return c.cfg.Priority }

func (c *Client) BatchSize() int { return c.batchSize }

// Enabled reports the configuration switch, independent of credentials.
func (c *Client) Enabled() bool { return c.cfg.Enabled }

// HasCredentials is false for providers that need a key and have none.
func (c *Client) HasCredentials() bool { return c.hasKey }

func (c *Client) IsAvailable() bool {
	return c.cfg.Enabled && c.hasKey
}

// PrefersLanguage reports whether target is one of the configured
// preferred languages.
func (c *Client) PrefersLanguage(target string) bool { return c.cfg.PrefersLanguage(target) }

// Config returns the provider's configuration section.
func (c *Client) Config() config.ProviderConfig { return c.cfg }

func (c *Client) Stats() StatsSnapshot {
	s := c.stats.Snapshot()
	s.Provider = c.cfg.Name
	s.Tier = c.cfg.Priority
	s.RateLimitWait = c.limiter.Waited()
	return s
}

// TranslateBatch serves what it can from the cache and sends the remaining
// distinct texts in a single call, guarded by the rate limiter and retried
// according to the provider's backoff settings.
func (c *Client) TranslateBatch(ctx context.Context, texts []string, source, target string) ([]string, error) {
	if !c.IsAvailable() {
		if !c.hasKey {
			return nil, &ProviderError{Provider: c.Name(), Kind: KindUnavailable, Message: "no api key configured", Err: ErrMissingCredentials}
		}
		return nil, NewError(c.Name(), KindUnavailable, "provider disabled")
	}
	if len(texts) > c.batchSize {
		return nil, NewError(c.Name(), KindMalformedRequest, "batch of %d exceeds limit of %d", len(texts), c.batchSize)
	}

	out := make([]string, len(texts))
	if len(texts) == 0 {
		return out, nil
	}

	// Distinct cache misses, and where each one goes in out.
	var pending []string
	positions := make(map[string][]int)
	var hits int64
	for i, text := range texts {
		if v, ok := c.cache.Get(ctx, cache.NewKey(text, source, target)); ok {
			out[i] = v
			hits++
			continue
		}
		if _, seen := positions[text]; !seen {
			pending = append(pending, text)
		}
		positions[text] = append(positions[text], i)
	}
	c.stats.cacheHits.Add(hits)
	if len(pending) == 0 {
		return out, nil
	}

	var chars int64
	for _, t := range pending {
		chars += int64(utf8.RuneCountInString(t))
	}
	c.stats.chars.Add(chars)

	var translated []string
	err := c.retrier.Do(ctx, func(ctx context.Context, attempt int) error {
		res, err := c.attempt(ctx, pending, source, target)
		if err != nil {
			return err
		}
		translated = res
		return nil
	}, func(attempt int, err error, delay time.Duration) {
		c.stats.retries.Add(1)
		c.log.Debug("retrying translation call",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
	})
	if err != nil {
		c.stats.failures.Add(1)
		return nil, err
	}
	c.stats.successes.Add(1)

	for j, text := range pending {
		for _, i := range positions[text] {
			out[i] = translated[j]
		}
		c.cache.Put(ctx, cache.NewKey(text, source, target), translated[j])
	}
	return out, nil
}

func (c *Client) attempt(ctx context.Context, texts []string, source, target string) ([]string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		if errors.Is(err, resilience.ErrWaitExceedsDeadline) {
			return nil, &ProviderError{Provider: c.Name(), Kind: KindRateLimited, Message: "local rate limit wait exceeds deadline", Err: err}
		}
		return nil, err
	}
	c.stats.calls.Add(1)

	callCtx := ctx
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	res, err := c.call(callCtx, texts, source, target)
	if err != nil {
		return nil, c.classify(ctx, err)
	}
	if len(res) != len(texts) {
		return nil, NewError(c.Name(), KindMalformedResponse, "expected %d translations, got %d", len(texts), len(res))
	}
	return res, nil
}

// classify tags err with the provider name and turns a per-call deadline
// into a retryable timeout. Cancellation of the caller's context is returned
// untouched.
func (c *Client) classify(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	var pe *ProviderError
	if errors.As(err, &pe) {
		if pe.Provider != "" {
			return err
		}
		tagged := *pe
		tagged.Provider = c.Name()
		return &tagged
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &ProviderError{Provider: c.Name(), Kind: KindTimeout, Message: "call exceeded " + c.cfg.Timeout.String(), Err: err}
	}
	return &ProviderError{Provider: c.Name(), Kind: KindNetwork, Err: err}
}
