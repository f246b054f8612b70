package resilience

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// ErrWaitExceedsDeadline is returned by Wait when the caller's deadline
// ends before the next token would be issued. The token is not consumed.
var ErrWaitExceedsDeadline = errors.New("rate limit wait exceeds deadline")

// Limiter is a token bucket whose capacity and refill rate both equal the
// configured requests per second. Wait blocks until a token is free; it
// never rejects work.
type Limiter struct {
	bucket *rate.Limiter
	waited atomic.Int64
	waits  atomic.Int64
}

func NewLimiter(perSecond int) *Limiter {
	if perSecond < 1 {
		perSecond = 1
	}
	return &Limiter{bucket: rate.NewLimiter(rate.Limit(perSecond), perSecond)}
}

// Wait takes one token, blocking until one is available or ctx ends. A
// deadline that cannot be met fails early with ErrWaitExceedsDeadline;
// cancellation returns ctx.Err().
func (l *Limiter) Wait(ctx context.Context) error {
	start := time.Now()
	err := l.bucket.Wait(ctx)
	if d := time.Since(start); d > time.Millisecond {
		l.waited.Add(int64(d))
		l.waits.Add(1)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %v", ErrWaitExceedsDeadline, err)
	}
	return nil
}

// Waited is the total time callers spent blocked on the bucket.
func (l *Limiter) Waited() time.Duration {
	return time.Duration(l.waited.Load())
}

// Throttled counts the Wait calls that actually blocked.
func (l *Limiter) Throttled() int64 {
	return l.waits.Load()
}

// Rate returns the refill rate in tokens per second.
func (l *Limiter) Rate() float64 {
	return float64(l.bucket.Limit())
}
