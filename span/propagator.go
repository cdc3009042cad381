package span

import (
	"context"

	"go.opentelemetry.io/otel"
	otelpropagation "go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// spanContextCarrier adapts a plain map[string]string into otel's
// TextMapCarrier so the active span's trace context can round-trip
// through whatever propagator is registered globally (W3C tracecontext
// by default), the same interop point dd-trace-go's OTel bridge uses
// to hand off to collectors that don't speak vestig-go's native shape.
type spanContextCarrier map[string]string

func (c spanContextCarrier) Get(key string) string { return c[key] }
func (c spanContextCarrier) Set(key, value string) { c[key] = value }
func (c spanContextCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}

// InjectHeaders writes the active span's OpenTelemetry-shaped context
// into headers using the globally configured otel.TextMapPropagator.
// If no span is active, headers is left untouched.
func InjectHeaders(ctx context.Context, headers map[string]string) {
	s := GetActiveSpan(ctx)
	if s == nil {
		return
	}
	sc, ok := buildSpanContext(s)
	if !ok {
		return
	}
	carrierCtx := trace.ContextWithSpanContext(ctx, sc)
	otel.GetTextMapPropagator().Inject(carrierCtx, spanContextCarrier(headers))
}

// ExtractSpanContext reads an upstream trace context out of headers
// using the globally configured otel.TextMapPropagator, for services
// that receive a request from an OTel-instrumented caller rather than
// another vestig-go process (which would use correlation's own
// traceparent encode/decode instead).
func ExtractSpanContext(ctx context.Context, headers map[string]string) trace.SpanContext {
	extracted := otel.GetTextMapPropagator().Extract(ctx, spanContextCarrier(headers))
	return trace.SpanContextFromContext(extracted)
}

func init() {
	otel.SetTextMapPropagator(otelpropagation.TraceContext{})
}
