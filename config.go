package vestig

import (
	"os"
	"strconv"
	"strings"

	"github.com/arakiss-oss/vestig-go/internal/metrics"
	"github.com/arakiss-oss/vestig-go/sampler"
	"github.com/arakiss-oss/vestig-go/sanitize"
	"github.com/arakiss-oss/vestig-go/transport"
)

// Config configures a root Logger at construction.
type Config struct {
	Level      LogLevel
	Enabled    *bool // nil defaults to true
	Structured *bool // nil defaults to true
	Namespace  string
	Context    map[string]any
	Sanitize   sanitize.Config
	Sampling   sampler.Config
	// HasSampling must be set when Sampling is meaningfully configured;
	// Config's zero value cannot distinguish "no sampler" from "sampler
	// kind probability, p=0" (always drop), so an explicit flag avoids
	// silently dropping every record for callers who never set Sampling.
	HasSampling bool
	Transports  []transport.Transport
	// Metrics, when set, is shared across every batching transport so a
	// single statsd client observes drops, retries, flush errors, and
	// flush duration for the whole logger instead of each transport
	// reporting to its own no-op default.
	Metrics *metrics.Client
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

// EnvOverrides reads LOG_LEVEL, LOG_ENABLED, LOG_STRUCTURED,
// LOG_SANITIZE, and LOG_CONTEXT_* into cfg, matching the spec's
// environment-variable config loader. Recognized variables override
// whatever cfg already held; unset variables leave cfg untouched.
func (cfg Config) EnvOverrides() (Config, error) {
	if v, ok := os.LookupEnv("LOG_LEVEL"); ok {
		lvl, ok := parseLevel(strings.ToLower(v))
		if !ok {
			return cfg, newConfigError("LOG_LEVEL", v, "unrecognized level")
		}
		cfg.Level = lvl
	}
	if v, ok := os.LookupEnv("LOG_ENABLED"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, newConfigError("LOG_ENABLED", v, "not a boolean")
		}
		cfg.Enabled = &b
	}
	if v, ok := os.LookupEnv("LOG_STRUCTURED"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, newConfigError("LOG_STRUCTURED", v, "not a boolean")
		}
		cfg.Structured = &b
	}
	if v, ok := os.LookupEnv("LOG_SANITIZE"); ok {
		preset := sanitize.Preset(v)
		if !sanitize.IsValidPreset(preset) {
			return cfg, newConfigError("LOG_SANITIZE", v, "unrecognized preset")
		}
		cfg.Sanitize.Preset = preset
	}
	if cfg.Context == nil {
		cfg.Context = map[string]any{}
	}
	for _, kv := range os.Environ() {
		key, val, found := strings.Cut(kv, "=")
		if !found || !strings.HasPrefix(key, "LOG_CONTEXT_") {
			continue
		}
		suffix := strings.TrimPrefix(key, "LOG_CONTEXT_")
		cfg.Context[suffix] = val
	}
	return cfg, nil
}

// OTelConfig is parsed separately since it configures the span
// processor registry rather than the logger itself.
type OTelConfig struct {
	Endpoint string
	Headers  map[string]string
}

// LoadOTelConfig reads OTEL_EXPORTER_OTLP_ENDPOINT and
// OTEL_EXPORTER_OTLP_HEADERS (comma-separated k=v pairs).
func LoadOTelConfig() OTelConfig {
	cfg := OTelConfig{
		Endpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		Headers:  map[string]string{},
	}
	raw := os.Getenv("OTEL_EXPORTER_OTLP_HEADERS")
	if raw == "" {
		return cfg
	}
	for _, pair := range strings.Split(raw, ",") {
		k, v, found := strings.Cut(pair, "=")
		if !found {
			continue
		}
		cfg.Headers[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return cfg
}
