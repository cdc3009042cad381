package propagation

import "sync"

// Ambient is a single-slot, process-wide LogContext store for call sites
// that cannot thread a context.Context. This is the degraded mode the
// spec documents for hosts without native async-local storage: it
// cannot distinguish concurrent logical requests from one another, and
// that limitation is deliberate, not a bug — prefer WithContext/
// FromContext wherever a context.Context is available.
type Ambient struct {
	mu    sync.Mutex
	stack []LogContext
}

// DefaultAmbient is the package-level instance most callers reach for.
var DefaultAmbient = &Ambient{}

// With pushes lc, runs fn, then restores the previous value — on every
// exit path, including a panic unwinding through fn, via defer.
func (a *Ambient) With(lc LogContext, fn func()) {
	a.mu.Lock()
	a.stack = append(a.stack, lc)
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		if n := len(a.stack); n > 0 {
			a.stack = a.stack[:n-1]
		}
		a.mu.Unlock()
	}()

	fn()
}

// Current returns the current top-of-stack LogContext, or the zero
// value if nothing has been pushed.
func (a *Ambient) Current() LogContext {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.stack) == 0 {
		return LogContext{}
	}
	return a.stack[len(a.stack)-1]
}
