// Package fallback provides the internal error-reporting sink used
// whenever vestig-go must tell someone about a failure it cannot
// propagate to the calling application (a dropped batch, a panicking
// processor). It is the Go analogue of the engine's own console.error
// escape hatch.
package fallback

import "go.uber.org/zap"

// Logger is the minimal surface the engine needs for internal
// reporting.
type Logger interface {
	Error(msg string, fields ...any)
}

// zapLogger adapts *zap.Logger to Logger, translating the loosely
// typed key/value pairs other packages pass into zap.Any fields.
type zapLogger struct {
	z *zap.Logger
}

// NewZap wraps z as a Logger.
func NewZap(z *zap.Logger) Logger {
	return &zapLogger{z: z}
}

func (l *zapLogger) Error(msg string, kv ...any) {
	fields := make([]zap.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, zap.Any(key, kv[i+1]))
	}
	l.z.Error(msg, fields...)
}

// Default builds a low-allocation production zap logger writing to
// stderr, matching the teacher's own production logging defaults.
func Default() Logger {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	z, err := cfg.Build()
	if err != nil {
		return noop{}
	}
	return NewZap(z)
}

type noop struct{}

func (noop) Error(string, ...any) {}

// Noop is a Logger that discards everything, used when fallback
// reporting is explicitly disabled.
var Noop Logger = noop{}
