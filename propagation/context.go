// Package propagation carries the request-scoped LogContext and the
// active span stack through a call chain. The idiomatic Go vehicle for
// this is context.Context, so that is the primary, tested path; Ambient
// exists only for call sites that genuinely cannot thread a
// context.Context, matching the spec's documented single-slot
// degradation for hosts without native async-local storage.
package propagation

import "context"

// LogContext is the request-scoped correlation map. It is snapshot
// valued: callers never mutate one in place, they build a new value
// with WithField/Merge and pass that onward.
type LogContext struct {
	fields map[string]any
}

// Recognized well-known keys.
const (
	KeyRequestID    = "requestId"
	KeyTraceID      = "traceId"
	KeySpanID       = "spanId"
	KeyParentSpanID = "parentSpanId"
	KeyUserID       = "userId"
	KeySessionID    = "sessionId"
)

// NewLogContext builds a LogContext from an initial set of fields.
func NewLogContext(fields map[string]any) LogContext {
	lc := LogContext{fields: make(map[string]any, len(fields))}
	for k, v := range fields {
		lc.fields[k] = v
	}
	return lc
}

// WithField returns a new LogContext with key set to value, leaving the
// receiver untouched.
func (lc LogContext) WithField(key string, value any) LogContext {
	next := NewLogContext(lc.fields)
	next.fields[key] = value
	return next
}

// Merge returns a new LogContext with other's fields overlaid on top of
// the receiver's.
func (lc LogContext) Merge(other LogContext) LogContext {
	next := NewLogContext(lc.fields)
	for k, v := range other.fields {
		next.fields[k] = v
	}
	return next
}

// Get returns the value for key, if present.
func (lc LogContext) Get(key string) (any, bool) {
	v, ok := lc.fields[key]
	return v, ok
}

// Snapshot returns a defensive copy of the underlying fields, suitable
// for attaching to an immutable LogRecord.
func (lc LogContext) Snapshot() map[string]any {
	out := make(map[string]any, len(lc.fields))
	for k, v := range lc.fields {
		out[k] = v
	}
	return out
}

type contextKey struct{ name string }

var logContextKey = &contextKey{"vestig-log-context"}

// WithContext returns a new context.Context carrying lc, to be read back
// with FromContext. The caller is responsible for restoring the previous
// context at scope exit (which happens automatically: ctx derived this
// way is discarded when the call that created it returns).
func WithContext(ctx context.Context, lc LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext returns the LogContext carried by ctx, or the zero value
// if none was set.
func FromContext(ctx context.Context) LogContext {
	lc, _ := ctx.Value(logContextKey).(LogContext)
	return lc
}

// WithContextFunc runs fn with ctx carrying lc, restoring the prior
// context on every exit path (return or panic) because ctx is scoped to
// the call and is never observed outside it — Go's block scoping gives
// this invariant for free, unlike hosts that require an explicit
// try/finally around a mutable ambient slot.
func WithContextFunc(ctx context.Context, lc LogContext, fn func(context.Context)) {
	fn(WithContext(ctx, lc))
}
