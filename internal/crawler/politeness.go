package crawler

import (
	"context"
	"math/rand/v2"
	"time"
)

// Default bounds for the pause taken after every request.
const (
	DefaultMinDelay = 3 * time.Second
	DefaultMaxDelay = 10 * time.Second
)

// Pacer throttles the request rate by pausing for a pseudo-random duration
// in [min, max] after each fetch.
type Pacer struct {
	min   time.Duration
	max   time.Duration
	randN func(n int64) int64
}

// NewPacer returns a pacer for the given bounds. Bounds are swapped when
// given in the wrong order and negative values are treated as zero.
func NewPacer(minDelay, maxDelay time.Duration) *Pacer {
	minDelay = max(minDelay, 0)
	maxDelay = max(maxDelay, 0)
	if minDelay > maxDelay {
		minDelay, maxDelay = maxDelay, minDelay
	}
	return &Pacer{
		min:   minDelay,
		max:   maxDelay,
		randN: rand.Int64N,
	}
}

// Delay picks the next pause duration.
func (p *Pacer) Delay() time.Duration {
	span := int64(p.max - p.min)
	if span <= 0 {
		return p.min
	}
	return p.min + time.Duration(p.randN(span+1))
}

// Pause blocks for Delay() or until ctx is done.
func (p *Pacer) Pause(ctx context.Context) {
	delay := p.Delay()
	if delay <= 0 {
		return
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
