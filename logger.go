// Package vestig is the logger core: the user-facing object that owns
// configuration, the child namespace tree, context and metadata
// merging, error serialization, and dispatch to the sanitizer,
// sampler, and transports.
package vestig

import (
	"context"
	"sync"

	"github.com/arakiss-oss/vestig-go/capability"
	"github.com/arakiss-oss/vestig-go/internal/fallback"
	"github.com/arakiss-oss/vestig-go/internal/metrics"
	"github.com/arakiss-oss/vestig-go/propagation"
	"github.com/arakiss-oss/vestig-go/sampler"
	"github.com/arakiss-oss/vestig-go/sanitize"
	"github.com/arakiss-oss/vestig-go/transport"
)

// Logger is the engine's public entry point. The zero value is not
// usable; construct with New or a parent's Child.
type Logger struct {
	mu sync.RWMutex

	level      LogLevel
	enabled    bool
	structured bool
	namespace  string
	context    map[string]any

	sanitizer *sanitize.Sanitizer
	sampler   sampler.Sampler

	// transports is shared by reference with children: a child's
	// addTransport/removeTransport replaces only the child's own slice,
	// never mutating the parent's.
	transports []transport.Transport

	fallback fallback.Logger
	metrics  *metrics.Client

	destroyed bool
}

// New builds a root Logger from cfg, applying documented defaults for
// unset fields.
func New(cfg Config) (*Logger, error) {
	sanitizeCfg := cfg.Sanitize
	if sanitizeCfg.Preset == "" {
		sanitizeCfg = sanitize.DefaultConfig()
	}

	var samp sampler.Sampler = sampler.Always
	if cfg.HasSampling {
		built, err := sampler.FromConfig(cfg.Sampling)
		if err != nil {
			return nil, newConfigError("Sampling", cfg.Sampling, err.Error())
		}
		samp = built
	}

	transports := cfg.Transports
	if transports == nil {
		transports = []transport.Transport{transport.NewConsoleTransport(transport.ConsoleOptions{
			Config: transport.Config{Enabled: true},
		})}
	}

	ctxCopy := make(map[string]any, len(cfg.Context))
	for k, v := range cfg.Context {
		ctxCopy[k] = v
	}

	metricsClient := cfg.Metrics
	if metricsClient == nil {
		metricsClient = metrics.New(nil)
	}

	l := &Logger{
		level:      cfg.Level,
		enabled:    boolOr(cfg.Enabled, true),
		structured: boolOr(cfg.Structured, true),
		namespace:  cfg.Namespace,
		context:    ctxCopy,
		sanitizer:  sanitize.New(sanitizeCfg),
		sampler:    samp,
		transports: transports,
		fallback:   fallback.Default(),
		metrics:    metricsClient,
	}
	for _, t := range l.transports {
		wireFallback(t, l.fallback)
		wireMetrics(t, l.metrics)
		_ = t.Init(context.Background())
	}
	return l, nil
}

// fallbackSetter is implemented by transports (BatchTransport and its
// embedders) that accept their internal-failure logger after
// construction, since the logger core's own fallback only exists once
// New has returned.
type fallbackSetter interface {
	SetFallback(transport.FallbackLogger)
}

func wireFallback(t transport.Transport, fb fallback.Logger) {
	if setter, ok := t.(fallbackSetter); ok {
		setter.SetFallback(fb)
	}
}

// metricsSetter is implemented by transports (BatchTransport and its
// embedders) that accept a shared statsd client after construction, the
// same way fallbackSetter accepts a shared fallback logger.
type metricsSetter interface {
	SetMetrics(*metrics.Client)
}

func wireMetrics(t transport.Transport, m *metrics.Client) {
	if setter, ok := t.(metricsSetter); ok {
		setter.SetMetrics(m)
	}
}

// Trace, Debug, Info, Warn, and Error are the leveled emission
// shorthand; metadata is optional and merged under the "metadata" key
// of the resulting record; its reserved "context" key also overlays the
// ambient/static context, and stays in metadata as well.
func (l *Logger) Trace(ctx context.Context, message string, metadata map[string]any) {
	l.Log(ctx, LevelTrace, message, metadata)
}
func (l *Logger) Debug(ctx context.Context, message string, metadata map[string]any) {
	l.Log(ctx, LevelDebug, message, metadata)
}
func (l *Logger) Info(ctx context.Context, message string, metadata map[string]any) {
	l.Log(ctx, LevelInfo, message, metadata)
}
func (l *Logger) Warn(ctx context.Context, message string, metadata map[string]any) {
	l.Log(ctx, LevelWarn, message, metadata)
}
func (l *Logger) Error(ctx context.Context, message string, metadata map[string]any) {
	l.Log(ctx, LevelError, message, metadata)
}

// Log runs the full emission algorithm for a single record.
func (l *Logger) Log(ctx context.Context, level LogLevel, message string, metadata map[string]any) {
	l.mu.RLock()
	enabled, gate, destroyed := l.enabled, l.level, l.destroyed
	l.mu.RUnlock()

	// Step 1: fast gate.
	if destroyed || !enabled || level < gate {
		return
	}

	// Step 2: build the candidate record.
	l.mu.RLock()
	staticCtx := make(map[string]any, len(l.context))
	for k, v := range l.context {
		staticCtx[k] = v
	}
	namespace := l.namespace
	l.mu.RUnlock()

	merged := make(map[string]any, len(staticCtx))
	if ctx != nil {
		for k, v := range propagation.FromContext(ctx).Snapshot() {
			merged[k] = v
		}
	}
	for k, v := range staticCtx {
		merged[k] = v
	}
	var callSiteCtx map[string]any
	if metadata != nil {
		if v, ok := metadata["context"]; ok {
			if m, ok := v.(map[string]any); ok {
				callSiteCtx = m
			}
		}
	}
	for k, v := range callSiteCtx {
		merged[k] = v
	}

	rec := LogRecord{
		Timestamp: nowRFC3339(),
		Level:     level,
		Message:   message,
		Runtime:   string(capability.RUNTIME()),
		Namespace: namespace,
		Context:   merged,
		Metadata:  metadata,
	}

	// Step 3: error serialization.
	if metadata != nil {
		if errVal, ok := metadata["error"]; ok {
			if err, ok := errVal.(error); ok {
				rec.Error = SerializeError(err)
			}
		}
	}

	// Step 4: sanitize metadata and context.
	l.mu.RLock()
	san := l.sanitizer
	l.mu.RUnlock()
	if san != nil {
		if rec.Metadata != nil {
			if m, ok := san.Sanitize(rec.Metadata).(map[string]any); ok {
				rec.Metadata = m
			}
		}
		if rec.Context != nil {
			if m, ok := san.Sanitize(rec.Context).(map[string]any); ok {
				rec.Context = m
			}
		}
	}

	// Step 5: sampler check.
	l.mu.RLock()
	samp := l.sampler
	l.mu.RUnlock()
	if samp != nil && !samp.ShouldSample(sampler.Record{Level: level, Namespace: namespace}) {
		return
	}

	// Step 6: dispatch to every accepting transport.
	tr := l.recordForTransport(rec)
	l.mu.RLock()
	transports := l.transports
	l.mu.RUnlock()
	for _, t := range transports {
		t.Log(tr)
	}
}

func (l *Logger) recordForTransport(rec LogRecord) transport.Record {
	return transport.Record{
		Timestamp: rec.Timestamp,
		Level:     rec.Level,
		Message:   rec.Message,
		Namespace: rec.Namespace,
		Runtime:   rec.Runtime,
		Metadata:  rec.Metadata,
		Context:   rec.Context,
		Error:     serializedErrorToMap(rec.Error),
	}
}

// serializedErrorToMap converts a SerializedError (and its full cause
// chain) into the plain JSON-shaped map transport.Record.Error
// carries, so every transport emits §6's {name, message, stack?,
// cause?, code?, statusCode?, ...} shape rather than just the name,
// message, and top-level stack.
func serializedErrorToMap(se *SerializedError) map[string]any {
	if se == nil {
		return nil
	}
	m := map[string]any{
		"name":    se.Name,
		"message": se.Message,
	}
	if se.Stack != "" {
		m["stack"] = se.Stack
	}
	if se.Code != "" {
		m["code"] = se.Code
	}
	if se.StatusCode != 0 {
		m["statusCode"] = se.StatusCode
	}
	if se.Errno != "" {
		m["errno"] = se.Errno
	}
	if se.Syscall != "" {
		m["syscall"] = se.Syscall
	}
	if se.Path != "" {
		m["path"] = se.Path
	}
	if se.Address != "" {
		m["address"] = se.Address
	}
	if se.Port != "" {
		m["port"] = se.Port
	}
	if se.Cause != nil {
		m["cause"] = serializedErrorToMap(se.Cause)
	}
	return m
}

// ChildOverride overrides select fields of a child logger relative to
// its parent.
type ChildOverride struct {
	Level      LogLevel
	HasLevel   bool
	Context    map[string]any
	Transports []transport.Transport
}

// Child returns a Logger whose namespace is parent.namespace + ":" +
// suffix, whose static context is the parent's overlaid by
// override.Context, whose level is override.Level if HasLevel is set
// else the parent's, and whose transports are the parent's slice by
// reference unless override.Transports replaces them for this child
// only.
func (l *Logger) Child(suffix string, override ChildOverride) *Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()

	ns := suffix
	if l.namespace != "" {
		ns = l.namespace + ":" + suffix
	}

	ctx := make(map[string]any, len(l.context)+len(override.Context))
	for k, v := range l.context {
		ctx[k] = v
	}
	for k, v := range override.Context {
		ctx[k] = v
	}

	level := l.level
	if override.HasLevel {
		level = override.Level
	}

	transports := l.transports
	if override.Transports != nil {
		transports = override.Transports
	}

	return &Logger{
		level:      level,
		enabled:    l.enabled,
		structured: l.structured,
		namespace:  ns,
		context:    ctx,
		sanitizer:  l.sanitizer,
		sampler:    l.sampler,
		transports: transports,
		fallback:   l.fallback,
		metrics:    l.metrics,
	}
}

// AddTransport appends t to this logger's own transport slice. It
// never mutates a parent's or sibling's slice.
func (l *Logger) AddTransport(t transport.Transport) {
	l.mu.Lock()
	defer l.mu.Unlock()
	wireFallback(t, l.fallback)
	wireMetrics(t, l.metrics)
	_ = t.Init(context.Background())
	l.transports = append(append([]transport.Transport{}, l.transports...), t)
}

// RemoveTransport drops the transport named name from this logger's
// own transport slice.
func (l *Logger) RemoveTransport(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	next := make([]transport.Transport, 0, len(l.transports))
	for _, t := range l.transports {
		if t.Name() != name {
			next = append(next, t)
		}
	}
	l.transports = next
}

// SetLevel changes the gating level at runtime.
func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// Flush flushes every transport, continuing past individual failures
// (already routed to the internal fallback by each transport) and
// returning the first error seen, if any.
func (l *Logger) Flush(ctx context.Context) error {
	l.mu.RLock()
	transports := l.transports
	l.mu.RUnlock()

	var firstErr error
	for _, t := range transports {
		if err := t.Flush(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Destroy destroys every transport and marks the logger destroyed;
// further emission calls become no-ops. Idempotent.
func (l *Logger) Destroy(ctx context.Context) error {
	l.mu.Lock()
	if l.destroyed {
		l.mu.Unlock()
		return nil
	}
	l.destroyed = true
	transports := l.transports
	l.mu.Unlock()

	var firstErr error
	for _, t := range transports {
		if err := t.Destroy(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Namespace returns the logger's dotted/colon namespace, for tests and
// diagnostics.
func (l *Logger) Namespace() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.namespace
}
