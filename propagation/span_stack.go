package propagation

import "context"

// SpanRef is the minimal shape the propagator needs from an active span:
// enough to overlay trace/span correlation onto the LogContext. The
// span package's *Span satisfies this without propagation importing it,
// avoiding an import cycle between tracing and context propagation.
type SpanRef interface {
	TraceID() string
	SpanID() string
}

type spanStackKey struct{}

var activeSpanStackKey = spanStackKey{}

// WithSpan pushes span onto the active-span stack carried by ctx and
// overlays {traceId, spanId} onto the LogContext for the duration of the
// returned context, so logs emitted underneath automatically inherit
// trace correlation.
func WithSpan(ctx context.Context, span SpanRef) context.Context {
	stack, _ := ctx.Value(activeSpanStackKey).([]SpanRef)
	next := append(append([]SpanRef{}, stack...), span)
	ctx = context.WithValue(ctx, activeSpanStackKey, next)

	lc := FromContext(ctx).WithField(KeyTraceID, span.TraceID()).WithField(KeySpanID, span.SpanID())
	return WithContext(ctx, lc)
}

// ActiveSpan returns the top of the active-span stack, or nil if empty.
func ActiveSpan(ctx context.Context) SpanRef {
	stack, _ := ctx.Value(activeSpanStackKey).([]SpanRef)
	if len(stack) == 0 {
		return nil
	}
	return stack[len(stack)-1]
}
