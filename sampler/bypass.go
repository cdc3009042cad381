package sampler

// BypassPolicy wraps an inner sampler so that high-severity records
// skip the sampling decision entirely and are always kept. The bypass
// check runs before the inner sampler is ever consulted, so it never
// consumes a rate-limit token or a probability draw.
type BypassPolicy struct {
	inner              Sampler
	alwaysSampleErrors bool
	bypassLevel        Level
}

// BypassConfig controls a BypassPolicy. The zero value disables the
// bypass (AlwaysSampleErrors defaults to false), matching an explicit
// opt-in.
type BypassConfig struct {
	AlwaysSampleErrors bool
	BypassLevel        Level
}

// DefaultBypassLevel is the level at and above which a bypass-enabled
// policy skips sampling.
const DefaultBypassLevel = LevelError

// DefaultBypassConfig enables the bypass at DefaultBypassLevel.
func DefaultBypassConfig() BypassConfig {
	return BypassConfig{AlwaysSampleErrors: true, BypassLevel: DefaultBypassLevel}
}

// WithBypass wraps inner with a bypass policy exactly as configured;
// callers that want the spec default should start from
// DefaultBypassConfig.
func WithBypass(inner Sampler, cfg BypassConfig) *BypassPolicy {
	return &BypassPolicy{inner: inner, alwaysSampleErrors: cfg.AlwaysSampleErrors, bypassLevel: cfg.BypassLevel}
}

func (b *BypassPolicy) ShouldSample(r Record) bool {
	if b.alwaysSampleErrors && r.Level >= b.bypassLevel {
		return true
	}
	return b.inner.ShouldSample(r)
}
