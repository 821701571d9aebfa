package broker

import (
	"context"
	"sync"
	"time"
)

// Pacer enforces a minimum interval between successive outgoing calls,
// process-wide. The KIS gateway throttles at roughly one request per
// second per app key, so every attempt — retries included — waits for
// the next free slot before going out.
//
// Unlike a token bucket there is no burst allowance: the gateway counts
// per-second, so the pacer hands out strictly spaced slots.
type Pacer struct {
	mu       sync.Mutex
	interval time.Duration
	next     time.Time // earliest time the next call may start
}

// NewPacer returns a pacer spacing calls at least interval apart.
func NewPacer(interval time.Duration) *Pacer {
	return &Pacer{interval: interval}
}

// Wait blocks until the caller owns the next call slot, or until ctx is
// done. Slots are granted in arrival order under the mutex.
func (p *Pacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	now := time.Now()
	start := p.next
	if start.Before(now) {
		start = now
	}
	p.next = start.Add(p.interval)
	p.mu.Unlock()

	delay := time.Until(start)
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
