// Package transport implements the dispatch framework that takes a
// sanitized, sampled log record and delivers it to one or more sinks:
// console, HTTP collectors, rotating files, Datadog, Sentry, and an
// edge-friendly variant with an offline queue. Most transports embed
// BatchTransport, which owns the buffering, batch-size/interval
// triggers, and retry-with-backoff machinery they all share.
package transport

import (
	"context"
	"time"

	"github.com/arakiss-oss/vestig-go/sampler"
)

// Record is the wire-level shape a transport receives. It is built by
// the logger core from its own LogRecord and is intentionally
// transport-agnostic: Metadata/Context/Error are plain JSON-shaped
// maps so this package has no dependency on the logger core.
type Record struct {
	Timestamp string
	Level     sampler.Level
	Message   string
	Namespace string
	Runtime   string
	Metadata  map[string]any
	Context   map[string]any
	Error     map[string]any
}

// Filter decides whether a record should be delivered, beyond the
// level gate. A nil Filter accepts everything.
type Filter func(Record) bool

// Config is the shared configuration surface every transport honors.
type Config struct {
	Enabled bool
	// Level gates records below this severity. Zero value
	// (sampler.LevelTrace) accepts everything.
	Level  sampler.Level
	Filter Filter
}

// Accepts reports whether cfg permits r to be delivered.
func (cfg Config) Accepts(r Record) bool {
	if !cfg.Enabled {
		return false
	}
	if r.Level < cfg.Level {
		return false
	}
	if cfg.Filter != nil && !cfg.Filter(r) {
		return false
	}
	return true
}

// Transport is the trait every sink implements.
type Transport interface {
	Name() string
	Log(r Record)
	Init(ctx context.Context) error
	Flush(ctx context.Context) error
	Destroy(ctx context.Context) error
}

// Hooks are callbacks invoked on transport-level failures. They never
// block delivery and must not panic; a nil hook is simply skipped.
type Hooks struct {
	OnFlushError func(transportName string, err error)
	OnDrop       func(transportName string, count int)
}

func (h Hooks) flushError(name string, err error) {
	if h.OnFlushError != nil {
		h.OnFlushError(name, err)
	}
}

func (h Hooks) drop(name string, count int) {
	if count <= 0 {
		return
	}
	if h.OnDrop != nil {
		h.OnDrop(name, count)
	}
}

// FallbackLogger is the minimal surface BatchTransport needs to report
// its own internal failures, so this package doesn't hard-depend on a
// specific logging library.
type FallbackLogger interface {
	Error(msg string, fields ...any)
}

// noopFallback discards everything; used when no fallback is wired.
type noopFallback struct{}

func (noopFallback) Error(string, ...any) {}

var defaultFallback FallbackLogger = noopFallback{}

const (
	defaultMaxBufferSize = 500
	defaultMaxRetries    = 3
	defaultRetryDelay    = 10 * time.Millisecond
	defaultShutdownDelay = 5 * time.Second
)

func levelName(l sampler.Level) string {
	switch l {
	case sampler.LevelTrace:
		return "trace"
	case sampler.LevelDebug:
		return "debug"
	case sampler.LevelInfo:
		return "info"
	case sampler.LevelWarn:
		return "warn"
	case sampler.LevelError:
		return "error"
	default:
		return "info"
	}
}

func parseLevelName(s string) sampler.Level {
	switch s {
	case "trace":
		return sampler.LevelTrace
	case "debug":
		return sampler.LevelDebug
	case "warn", "warning":
		return sampler.LevelWarn
	case "error":
		return sampler.LevelError
	default:
		return sampler.LevelInfo
	}
}

// datadogLevelName applies the vendor-specific level mapping:
// trace/debug collapse to "debug", warn becomes "warning".
func datadogLevelName(l sampler.Level) string {
	switch l {
	case sampler.LevelTrace, sampler.LevelDebug:
		return "debug"
	case sampler.LevelWarn:
		return "warning"
	case sampler.LevelError:
		return "error"
	default:
		return "info"
	}
}
