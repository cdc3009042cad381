package span

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

// OTLPExporter is the default span processor: it converts each ended
// span's identifiers into OpenTelemetry's wire-neutral trace.SpanContext
// shape and hands it to an Emit callback. It deliberately stops short of
// OTLP protobuf encoding/gRPC transport, which is out of scope; callers
// that need a real collector integration supply Emit themselves (e.g.
// wiring to go.opentelemetry.io/otel/exporters/otlp).
type OTLPExporter struct {
	// Emit receives every ended span's OpenTelemetry-shaped context and
	// attributes. A nil Emit makes the exporter a no-op sink, useful as
	// a registry placeholder in tests.
	Emit func(sc trace.SpanContext, s ReadOnlySpan)
}

func (e *OTLPExporter) OnEnd(s ReadOnlySpan) {
	if e.Emit == nil {
		return
	}
	sc, ok := buildSpanContext(s)
	if !ok {
		return
	}
	e.Emit(sc, s)
}

func (e *OTLPExporter) Shutdown(ctx context.Context) error { return nil }

// buildSpanContext converts vestig-go's hex-string trace/span IDs into
// otel/trace's fixed-width ID types. ok is false if either ID is not
// valid hex of the expected length.
func buildSpanContext(s ReadOnlySpan) (trace.SpanContext, bool) {
	tid, err := trace.TraceIDFromHex(s.TraceID())
	if err != nil {
		return trace.SpanContext{}, false
	}
	sid, err := trace.SpanIDFromHex(s.SpanID())
	if err != nil {
		return trace.SpanContext{}, false
	}
	return trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: tid,
		SpanID:  sid,
	}), true
}
