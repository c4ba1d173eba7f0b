// Package ratelimit spaces calls to a remote API by a minimum interval.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter guarantees that consecutive calls run through Do are separated by at
// least 1/rate, measured from the end of one call to the start of the next.
// There is no burst allowance; the first call never waits.
type Limiter struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Limiter allowing perSecond calls per second.
func New(perSecond float64) *Limiter {
	if perSecond <= 0 {
		perSecond = 1
	}
	return &Limiter{
		interval: time.Duration(float64(time.Second) / perSecond),
		now:      time.Now,
		sleep:    sleepCtx,
	}
}

// Interval returns the minimum spacing between calls.
func (l *Limiter) Interval() time.Duration {
	return l.interval
}

// Do waits out the remaining interval since the previous call, runs fn and
// records its completion time. The completion time is recorded even when fn
// fails.
func (l *Limiter) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.last.IsZero() {
		if wait := l.interval - l.now().Sub(l.last); wait > 0 {
			if err := l.sleep(ctx, wait); err != nil {
				return err
			}
		}
	}

	err := fn(ctx)
	l.last = l.now()
	return err
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
