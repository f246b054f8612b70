// Package resilience holds the building blocks every provider composes: a
// retry executor with exponential backoff and a blocking token bucket.
package resilience

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// DefaultJitter is the fraction by which a backoff delay is randomly
// stretched or shrunk.
const DefaultJitter = 0.1

// retryable is implemented by errors that know whether another attempt can help.
type retryable interface {
	Retryable() bool
}

// delayHinter is implemented by errors carrying a server supplied wait, such
// as a Retry-After header on a 429.
type delayHinter interface {
	RetryAfter() time.Duration
}

// IsRetryable reports whether err, or any error it wraps, asks for a retry.
// Errors that do not classify themselves are final.
func IsRetryable(err error) bool {
	var r retryable
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return false
}

// RetryFunc observes a scheduled retry: the attempt that just failed, its
// error and the delay before the next one.
type RetryFunc func(attempt int, err error, delay time.Duration)

// Retrier runs an operation up to MaxRetries+1 times. The delay before
// attempt n (n >= 2) is min(MaxDelay, InitialDelay * Multiplier^(n-2)),
// jittered by +/- Jitter.
type Retrier struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Jitter       float64

	// rand and sleep are replaced in tests.
	rand  func() float64
	sleep func(ctx context.Context, d time.Duration) error
}

func NewRetrier(maxRetries int, initial, maxDelay time.Duration, multiplier float64) Retrier {
	if multiplier < 1 {
		multiplier = 1
	}
	return Retrier{
		MaxRetries:   maxRetries,
		InitialDelay: initial,
		MaxDelay:     maxDelay,
		Multiplier:   multiplier,
		Jitter:       DefaultJitter,
	}
}

// Attempts is the total number of tries Do will make.
func (r Retrier) Attempts() int {
	if r.MaxRetries < 0 {
		return 1
	}
	return r.MaxRetries + 1
}

// Delay returns the un-jittered wait before the given attempt (1-based).
// The first attempt never waits.
func (r Retrier) Delay(attempt int) time.Duration {
	if attempt < 2 || r.InitialDelay <= 0 {
		return 0
	}
	mult := r.Multiplier
	if mult < 1 {
		mult = 1
	}
	d := float64(r.InitialDelay) * math.Pow(mult, float64(attempt-2))
	if r.MaxDelay > 0 && d > float64(r.MaxDelay) {
		return r.MaxDelay
	}
	if d > math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(d)
}

func (r Retrier) jitter(d time.Duration) time.Duration {
	if d <= 0 || r.Jitter <= 0 {
		return d
	}
	rnd := r.rand
	if rnd == nil {
		rnd = rand.Float64
	}
	factor := 1 + r.Jitter*(2*rnd()-1)
	return time.Duration(float64(d) * factor)
}

// Do calls op until it succeeds, returns a non-retryable error, or the
// attempts are used up. The error of the final attempt is returned as is.
// Cancelling ctx during a backoff wait returns ctx.Err().
func (r Retrier) Do(ctx context.Context, op func(ctx context.Context, attempt int) error, onRetry RetryFunc) error {
	sleep := r.sleep
	if sleep == nil {
		sleep = sleepContext
	}

	for attempt := 1; ; attempt++ {
		err := op(ctx, attempt)
		if err == nil {
			return nil
		}
		if attempt >= r.Attempts() || !IsRetryable(err) || ctx.Err() != nil {
			return err
		}

		delay := r.jitter(r.Delay(attempt + 1))
		var hint delayHinter
		if errors.As(err, &hint) && hint.RetryAfter() > delay {
			delay = hint.RetryAfter()
			if r.MaxDelay > 0 && delay > r.MaxDelay {
				delay = r.MaxDelay
			}
		}

		if onRetry != nil {
			onRetry(attempt, err, delay)
		}
		if serr := sleep(ctx, delay); serr != nil {
			return serr
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
