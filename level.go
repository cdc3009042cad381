package vestig

import "github.com/arakiss-oss/vestig-go/sampler"

// LogLevel is an alias for sampler.Level: the ordinal severity scale
// is shared across the logger core, the sampler's bypass policy, and
// the transport config gate, rather than duplicated per package.
type LogLevel = sampler.Level

const (
	LevelTrace = sampler.LevelTrace
	LevelDebug = sampler.LevelDebug
	LevelInfo  = sampler.LevelInfo
	LevelWarn  = sampler.LevelWarn
	LevelError = sampler.LevelError
)

func levelName(l LogLevel) string {
	switch l {
	case LevelTrace:
		return "trace"
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// parseLevel parses the string forms accepted by LOG_LEVEL. ok is
// false for an unrecognized string.
func parseLevel(s string) (LogLevel, bool) {
	switch s {
	case "trace":
		return LevelTrace, true
	case "debug":
		return LevelDebug, true
	case "info":
		return LevelInfo, true
	case "warn", "warning":
		return LevelWarn, true
	case "error":
		return LevelError, true
	default:
		return 0, false
	}
}
