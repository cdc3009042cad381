package span

import (
	"context"
	"sync"
	"time"
)

// ReadOnlySpan is the read-only view of an ended span handed to
// processors, shaped after OpenTelemetry's SpanProcessor.OnEnd
// argument (go.opentelemetry.io/otel/sdk/trace.ReadOnlySpan).
type ReadOnlySpan interface {
	Name() string
	TraceID() string
	SpanID() string
	ParentSpanID() string
	StartTimeMS() int64
	EndTimeMS() int64
	DurationMS() int64
	Status() (Status, string)
	Attributes() map[string]any
	Events() []SpanEvent
}

// Processor mirrors OpenTelemetry's SpanProcessor contract:
// OnEnd is called synchronously as each span ends, Shutdown drains
// and releases resources bounded by the passed context's deadline.
type Processor interface {
	OnEnd(s ReadOnlySpan)
	Shutdown(ctx context.Context) error
}

var (
	registryMu sync.Mutex
	processors []Processor
)

// RegisterProcessor appends p to the global processor registry. Order
// is preserved: processors are notified in registration order.
func RegisterProcessor(p Processor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	processors = append(processors, p)
}

// ResetProcessors clears the registry. Exposed for tests and for
// applications that want to fully reconfigure tracing at runtime.
func ResetProcessors() {
	registryMu.Lock()
	defer registryMu.Unlock()
	processors = nil
}

func notifyProcessors(s *Span) {
	registryMu.Lock()
	snapshot := append([]Processor{}, processors...)
	registryMu.Unlock()

	for _, p := range snapshot {
		p.OnEnd(s)
	}
}

// ShutdownSpanProcessors calls Shutdown on every registered processor,
// all sharing a single context bounded by deadline, and clears the
// registry.
func ShutdownSpanProcessors(ctx context.Context, deadline time.Duration) error {
	registryMu.Lock()
	snapshot := append([]Processor{}, processors...)
	processors = nil
	registryMu.Unlock()

	shutdownCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	var firstErr error
	for _, p := range snapshot {
		if err := p.Shutdown(shutdownCtx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
