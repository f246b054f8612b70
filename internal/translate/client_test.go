package translate

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nulzo/translation-router/internal/cache"
	"github.com/nulzo/translation-router/internal/config"
	"github.com/nulzo/translation-router/internal/resilience"
)

func testConfig() config.ProviderConfig {
	cfg := config.DefaultProviderConfig("fake")
	cfg.APIKey = "secret"
	cfg.RetryInitialDelay = time.Millisecond
	cfg.RetryMaxDelay = 5 * time.Millisecond
	cfg.RateLimitPerSecond = 1000
	cfg.Timeout = time.Second
	return cfg
}

func upper(_ context.Context, texts []string, _, _ string) ([]string, error) {
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = strings.ToUpper(t)
	}
	return out, nil
}

func newTestClient(t *testing.T, cfg config.ProviderConfig, call BatchFunc) *Client {
	t.Helper()
	lru, err := cache.NewLRU(100)
	require.NoError(t, err)
	return NewClient(cfg, Traits{MaxBatch: 50, RequiresKey: true}, Deps{Cache: lru}, call)
}

func TestClient_TranslateBatch(t *testing.T) {
	c := newTestClient(t, testConfig(), upper)

	out, err := c.TranslateBatch(context.Background(), []string{"a", "b", "a"}, "en", "de")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "A"}, out)

	s := c.Stats()
	assert.Equal(t, "fake", s.Provider)
	assert.Equal(t, int64(1), s.NetworkCalls)
	assert.Equal(t, int64(1), s.SuccessfulCalls)
	assert.Equal(t, int64(2), s.CharactersSubmitted, "duplicates are sent once")
}

func TestClient_CacheHitSkipsNetwork(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, testConfig(), func(ctx context.Context, texts []string, s, tg string) ([]string, error) {
		calls.Add(1)
		return upper(ctx, texts, s, tg)
	})
	ctx := context.Background()

	_, err := c.TranslateBatch(ctx, []string{"hello"}, "en", "de")
	require.NoError(t, err)
	out, err := c.TranslateBatch(ctx, []string{"hello"}, "en", "de")
	require.NoError(t, err)
	assert.Equal(t, []string{"HELLO"}, out)

	s := c.Stats()
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, int64(1), s.NetworkCalls)
	assert.Equal(t, int64(1), s.CacheHits)

	// different target language is a miss
	_, err = c.TranslateBatch(ctx, []string{"hello"}, "en", "fr")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_PartialCacheHitSendsOnlyMisses(t *testing.T) {
	var sent [][]string
	c := newTestClient(t, testConfig(), func(ctx context.Context, texts []string, s, tg string) ([]string, error) {
		sent = append(sent, append([]string(nil), texts...))
		return upper(ctx, texts, s, tg)
	})
	ctx := context.Background()

	_, err := c.TranslateBatch(ctx, []string{"x"}, "en", "de")
	require.NoError(t, err)
	out, err := c.TranslateBatch(ctx, []string{"y", "x", "z"}, "en", "de")
	require.NoError(t, err)

	assert.Equal(t, []string{"Y", "X", "Z"}, out)
	assert.Equal(t, [][]string{{"x"}, {"y", "z"}}, sent)
}

func TestClient_RetriesThenSucceeds(t *testing.T) {
	cfg := testConfig()
	cfg.MaxRetries = 2
	var calls atomic.Int32
	c := newTestClient(t, cfg, func(ctx context.Context, texts []string, s, tg string) ([]string, error) {
		if calls.Add(1) <= 2 {
			return nil, &ProviderError{Kind: KindServer, StatusCode: 503}
		}
		return upper(ctx, texts, s, tg)
	})

	out, err := c.TranslateBatch(context.Background(), []string{"ok"}, "en", "de")
	require.NoError(t, err)
	assert.Equal(t, []string{"OK"}, out)

	s := c.Stats()
	assert.Equal(t, int64(3), s.NetworkCalls)
	assert.Equal(t, int64(2), s.RetryAttempts)
	assert.Equal(t, int64(0), s.Failures)
}

func TestClient_NonRetryableFailsFast(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, testConfig(), func(ctx context.Context, texts []string, s, tg string) ([]string, error) {
		calls.Add(1)
		return nil, &ProviderError{Kind: KindAuthentication, StatusCode: 403}
	})

	_, err := c.TranslateBatch(context.Background(), []string{"x"}, "en", "de")
	require.Error(t, err)

	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, KindAuthentication, pe.Kind)
	assert.Equal(t, "fake", pe.Provider)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, int64(1), c.Stats().Failures)
}

func TestClient_ExhaustedRetriesSurfaceLastError(t *testing.T) {
	cfg := testConfig()
	cfg.MaxRetries = 1
	c := newTestClient(t, cfg, func(ctx context.Context, texts []string, s, tg string) ([]string, error) {
		return nil, &ProviderError{Kind: KindRateLimited, StatusCode: 429}
	})

	_, err := c.TranslateBatch(context.Background(), []string{"x"}, "en", "de")
	assert.Equal(t, KindRateLimited, KindOf(err))
	assert.Equal(t, int64(2), c.Stats().NetworkCalls)
}

func TestClient_WrongLengthIsMalformedResponse(t *testing.T) {
	c := newTestClient(t, testConfig(), func(ctx context.Context, texts []string, s, tg string) ([]string, error) {
		return []string{"only one"}, nil
	})

	_, err := c.TranslateBatch(context.Background(), []string{"a", "b"}, "en", "de")
	assert.Equal(t, KindMalformedResponse, KindOf(err))
}

func TestClient_PerCallTimeoutIsRetryable(t *testing.T) {
	cfg := testConfig()
	cfg.Timeout = 10 * time.Millisecond
	cfg.MaxRetries = 1
	var calls atomic.Int32
	c := newTestClient(t, cfg, func(ctx context.Context, texts []string, s, tg string) ([]string, error) {
		if calls.Add(1) == 1 {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return upper(ctx, texts, s, tg)
	})

	out, err := c.TranslateBatch(context.Background(), []string{"late"}, "en", "de")
	require.NoError(t, err)
	assert.Equal(t, []string{"LATE"}, out)
	assert.Equal(t, int64(1), c.Stats().RetryAttempts)
}

func TestClient_UnclassifiedErrorIsNetwork(t *testing.T) {
	cfg := testConfig()
	cfg.MaxRetries = 0
	c := newTestClient(t, cfg, func(ctx context.Context, texts []string, s, tg string) ([]string, error) {
		return nil, errors.New("connection reset")
	})

	_, err := c.TranslateBatch(context.Background(), []string{"x"}, "en", "de")
	assert.Equal(t, KindNetwork, KindOf(err))
	assert.True(t, IsRetryable(err))
}

func TestClient_BatchLimit(t *testing.T) {
	cfg := testConfig()
	cfg.BatchSize = 500
	c := newTestClient(t, cfg, upper)
	assert.Equal(t, 50, c.BatchSize(), "capped at the service maximum")

	_, err := c.TranslateBatch(context.Background(), make([]string, 51), "en", "de")
	assert.Equal(t, KindMalformedRequest, KindOf(err))
	assert.False(t, IsRetryable(err))
}

func TestClient_Availability(t *testing.T) {
	cfg := testConfig()
	cfg.APIKey = ""
	c := newTestClient(t, cfg, upper)
	assert.False(t, c.IsAvailable())
	assert.False(t, c.HasCredentials())

	_, err := c.TranslateBatch(context.Background(), []string{"x"}, "en", "de")
	assert.ErrorIs(t, err, ErrMissingCredentials)

	cfg = testConfig()
	cfg.Enabled = false
	c = newTestClient(t, cfg, upper)
	assert.False(t, c.IsAvailable())
	assert.True(t, c.HasCredentials())

	keyless := NewClient(config.ProviderConfig{Name: "self-hosted", Enabled: true}, Traits{MaxBatch: 10}, Deps{}, upper)
	assert.True(t, keyless.IsAvailable())
}

func TestClient_EmptyBatch(t *testing.T) {
	c := newTestClient(t, testConfig(), func(context.Context, []string, string, string) ([]string, error) {
		t.Fatal("no call expected")
		return nil, nil
	})
	out, err := c.TranslateBatch(context.Background(), nil, "en", "de")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestClient_ConcurrentCallsShareCounters(t *testing.T) {
	c := newTestClient(t, testConfig(), upper)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.TranslateBatch(context.Background(), []string{"same"}, "en", "de")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	s := c.Stats()
	assert.Equal(t, int64(20), s.SuccessfulCalls+s.CacheHits)
}

func TestClient_SharedErrorValueIsNotModified(t *testing.T) {
	cfg := testConfig()
	cfg.MaxRetries = 0
	shared := &ProviderError{Kind: KindAuthentication, StatusCode: 401}
	c := newTestClient(t, cfg, func(ctx context.Context, texts []string, s, tg string) ([]string, error) {
		return nil, shared
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := c.TranslateBatch(context.Background(), []string{string(rune('a' + i))}, "en", "de")
			var pe *ProviderError
			if assert.ErrorAs(t, err, &pe) {
				assert.Equal(t, "fake", pe.Provider)
				assert.Equal(t, 401, pe.StatusCode)
			}
		}(i)
	}
	wg.Wait()
	assert.Empty(t, shared.Provider)
}

func TestClient_RateLimitWaitPastDeadlineIsRateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitPerSecond = 1
	cfg.MaxRetries = 0
	c := newTestClient(t, cfg, upper)

	_, err := c.TranslateBatch(context.Background(), []string{"first"}, "en", "de")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err = c.TranslateBatch(ctx, []string{"second"}, "en", "de")
	require.Error(t, err)
	assert.Equal(t, KindRateLimited, KindOf(err))
	assert.ErrorIs(t, err, resilience.ErrWaitExceedsDeadline)
	assert.Equal(t, int64(1), c.Stats().NetworkCalls)
}
