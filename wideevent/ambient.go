package wideevent

import "context"

// builderKeyType is the context key carrying the active Builder.
type builderKeyType struct{}

var builderKey builderKeyType

// WithWideEvent returns a context with b set as the active wide event
// builder, then runs fn, then returns — the scope is exactly the
// extent of fn's call, restoring whatever was active before on every
// exit path (fn's return is itself the restoration boundary, since Go
// contexts are immutable values rather than mutable ambient state).
func WithWideEvent(ctx context.Context, b *Builder, fn func(ctx context.Context)) {
	fn(context.WithValue(ctx, builderKey, b))
}

// WithWideEventAsync is identical to WithWideEvent: the spec's
// distinction between a synchronous and an async/generator scope
// operator has no counterpart in Go's single-threaded-per-goroutine
// context model.
func WithWideEventAsync(ctx context.Context, b *Builder, fn func(ctx context.Context)) {
	WithWideEvent(ctx, b, fn)
}

// GetActiveWideEvent returns the builder active in ctx, or nil.
func GetActiveWideEvent(ctx context.Context) *Builder {
	b, _ := ctx.Value(builderKey).(*Builder)
	return b
}
