package ratelimiter

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter throttles coordinator connection attempts with a token bucket.
//
// Every FileHandle and namespace helper opens its own connection, so a busy
// process can flood the coordinator with session setups. A Limiter caps the
// sustained connect rate while still admitting short bursts.
//
// A nil *Limiter admits everything, which lets callers keep an unconfigured
// limiter as a plain field.
//
// Thread safety:
// All methods are safe for concurrent use.
type Limiter struct {
	limiter *rate.Limiter
}

// New creates a Limiter allowing perSecond connects with the given burst.
//
// Parameters:
//   - perSecond: Sustained connect rate. 0 disables limiting and returns nil.
//   - burst: Bucket capacity. 0 uses perSecond.
//
// Returns a configured Limiter, or nil when limiting is disabled.
func New(perSecond, burst uint) *Limiter {
	if perSecond == 0 {
		return nil
	}
	if burst == 0 {
		burst = perSecond
	}

	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(perSecond), int(burst)),
	}
}

// Wait blocks until a token is available or ctx is done.
//
// Returns:
//   - nil if a token was acquired
//   - error if ctx was cancelled, or its deadline would pass before a token frees up
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}
	return l.limiter.Wait(ctx)
}

// Limit returns the sustained rate in connects per second (0 when unlimited).
func (l *Limiter) Limit() float64 {
	if l == nil {
		return 0
	}
	return float64(l.limiter.Limit())
}

// Burst returns the bucket capacity (0 when unlimited).
func (l *Limiter) Burst() int {
	if l == nil {
		return 0
	}
	return l.limiter.Burst()
}
