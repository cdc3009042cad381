// Package schedule provides small timer abstractions used by the
// transport framework to drive periodic flushes.
package schedule

import (
	"sync"
	"time"
)

// Ticker wraps time.Ticker with an idempotent Stop, so callers that
// race a shutdown against a tick don't need to guard the second Stop
// call themselves.
type Ticker struct {
	mu      sync.Mutex
	ticker  *time.Ticker
	stopped bool

	// C is the tick channel, exposed directly as with time.Ticker.
	C <-chan time.Time
}

// NewTicker starts a ticker firing every interval.
func NewTicker(interval time.Duration) *Ticker {
	t := time.NewTicker(interval)
	return &Ticker{ticker: t, C: t.C}
}

// Stop halts the ticker. Calling Stop more than once is a no-op.
func (t *Ticker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	t.stopped = true
	t.ticker.Stop()
}

// Reset changes the ticker's period. It is a no-op after Stop.
func (t *Ticker) Reset(interval time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	t.ticker.Reset(interval)
}
