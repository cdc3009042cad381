// Package span implements the tracing core: Span/SpanEvent types, the
// active-span stack, and a span-processor registry shaped after
// OpenTelemetry's SpanProcessor contract.
package span

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/arakiss-oss/vestig-go/capability"
	"github.com/arakiss-oss/vestig-go/correlation"
)

// Status is a span's terminal outcome.
type Status string

const (
	StatusUnset Status = "unset"
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// SpanEvent is a timestamped annotation attached to a span.
type SpanEvent struct {
	Name       string
	Timestamp  string // RFC3339
	Attributes map[string]any
}

// Span is the unit of work tracked by the tracing core. Once Ended is
// true, every mutating method is a silent no-op: attempts to mutate a
// finished span are discarded rather than erroring, matching the
// spec's terminal-state invariant.
type Span struct {
	mu sync.Mutex

	spanID       string
	traceID      string
	parentSpanID string
	name         string
	startTimeMS  int64
	endTimeMS    int64
	status       Status
	statusMsg    string
	attributes   map[string]any
	events       []SpanEvent

	ended atomic.Bool
}

// Options configures StartSpan.
type Options struct {
	ParentSpan *Span
	Attributes map[string]any
}

// StartSpan begins a new span named name. Its parent is
// opts.ParentSpan only: StartSpan takes no context and does not look up
// the active span (Run passes GetActiveSpan(ctx) as ParentSpan). It
// inherits traceID from the parent or mints a fresh one if there is
// none.
func StartSpan(name string, opts Options) *Span {
	parent := opts.ParentSpan

	s := &Span{
		spanID:      correlation.GenerateSpanID(),
		name:        name,
		startTimeMS: capability.NowMS(),
		status:      StatusUnset,
		attributes:  copyAttrs(opts.Attributes),
	}
	if parent != nil {
		s.traceID = parent.TraceID()
		s.parentSpanID = parent.SpanID()
	} else {
		s.traceID = correlation.GenerateTraceID()
	}
	return s
}

func copyAttrs(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *Span) SpanID() string       { return s.spanID }
func (s *Span) TraceID() string      { return s.traceID }
func (s *Span) ParentSpanID() string { return s.parentSpanID }
func (s *Span) Name() string         { return s.name }
func (s *Span) StartTimeMS() int64   { return s.startTimeMS }
func (s *Span) Ended() bool          { return s.ended.Load() }

// EndTimeMS and DurationMS are zero until the span has ended.
func (s *Span) EndTimeMS() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endTimeMS
}

func (s *Span) DurationMS() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.endTimeMS == 0 {
		return 0
	}
	return s.endTimeMS - s.startTimeMS
}

func (s *Span) Status() (Status, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status, s.statusMsg
}

func (s *Span) Attributes() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyAttrs(s.attributes)
}

func (s *Span) Events() []SpanEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SpanEvent, len(s.events))
	copy(out, s.events)
	return out
}

// SetAttribute is a no-op once the span has ended.
func (s *Span) SetAttribute(key string, value any) {
	if s.Ended() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attributes == nil {
		s.attributes = map[string]any{}
	}
	s.attributes[key] = value
}

// AddEvent is a no-op once the span has ended.
func (s *Span) AddEvent(name string, attrs map[string]any) {
	if s.Ended() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, SpanEvent{
		Name:       name,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Attributes: attrs,
	})
}

// SetStatus is a no-op once the span has ended.
func (s *Span) SetStatus(status Status, message string) {
	if s.Ended() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
	s.statusMsg = message
}

// end freezes the span and returns whether this call actually
// transitioned it (false if it was already ended).
func (s *Span) end() bool {
	if !s.ended.CompareAndSwap(false, true) {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endTimeMS = capability.NowMS()
	return true
}
