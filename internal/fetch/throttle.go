package fetch

import (
	"context"
	"sync"
	"time"

	random "github.com/mazen160/go-random"
	"golang.org/x/time/rate"
)

// Throttle spaces successive requests by a random delay in [min, max].
//
// The limiter enforces min between requests, the random part adds up to
// max-min on top of it. The first request goes through immediately.
type Throttle struct {
	limiter *rate.Limiter
	spread  time.Duration

	mutex   sync.Mutex
	started bool
}

func NewThrottle(min, max time.Duration) *Throttle {
	if min < 0 {
		min = 0
	}
	if max < min {
		max = min
	}
	limit := rate.Inf
	if min > 0 {
		limit = rate.Every(min)
	}
	return &Throttle{
		limiter: rate.NewLimiter(limit, 1),
		spread:  max - min,
	}
}

// jitter returns a random duration in [0, spread].
func (t *Throttle) jitter() time.Duration {
	if t.spread <= 0 {
		return 0
	}
	ms, err := random.IntRange(0, int(t.spread/time.Millisecond)+1)
	if err != nil {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}

func (t *Throttle) Wait(ctx context.Context) error {
	err := t.limiter.Wait(ctx)
	if err != nil {
		return err
	}
	t.mutex.Lock()
	first := !t.started
	t.started = true
	t.mutex.Unlock()
	if first {
		return nil
	}

	extra := t.jitter()
	if extra <= 0 {
		return nil
	}
	timer := time.NewTimer(extra)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
