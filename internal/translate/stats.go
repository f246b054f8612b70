package translate

import (
	"sync/atomic"
	"time"
)

// Stats are the usage counters of one provider. They are updated only by
// the provider's own translate path.
type Stats struct {
	chars     atomic.Int64
	cacheHits atomic.Int64
	successes atomic.Int64
	calls     atomic.Int64
	retries   atomic.Int64
	failures  atomic.Int64
}

// StatsSnapshot is a point-in-time copy of a provider's counters.
type StatsSnapshot struct {
	Provider            string        `json:"provider"`
	Tier                int           `json:"tier"`
	CharactersSubmitted int64         `json:"characters_submitted"`
	CacheHits           int64         `json:"cache_hits"`
	SuccessfulCalls     int64         `json:"successful_calls"`
	NetworkCalls        int64         `json:"network_calls"`
	RetryAttempts       int64         `json:"retry_attempts"`
	Failures            int64         `json:"failures"`
	RateLimitWait       time.Duration `json:"rate_limit_wait_ns"`
}

func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		CharactersSubmitted: s.chars.Load(),
		CacheHits:           s.cacheHits.Load(),
		SuccessfulCalls:     s.successes.Load(),
		NetworkCalls:        s.calls.Load(),
		RetryAttempts:       s.retries.Load(),
		Failures:            s.failures.Load(),
	}
}
