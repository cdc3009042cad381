package sampler

import "fmt"

// Config is the structured form accepted by FromConfig. Exactly one of
// the variant fields should be set; Kind selects which.
type Config struct {
	Kind Kind

	// Probability
	P float64

	// RateLimit
	MaxPerSecond float64

	// Namespace
	Routes   map[string]Config
	Fallback *Config

	// Composite
	Children []Config

	Bypass *BypassConfig
}

// Kind selects which Sampler variant a Config builds.
type Kind string

const (
	KindProbability Kind = "probability"
	KindRateLimit   Kind = "rate_limit"
	KindNamespace   Kind = "namespace"
	KindComposite   Kind = "composite"
)

// FromConfig builds a Sampler tree from cfg. As a shorthand, a bare
// probability can be passed directly with FromProbability instead of
// constructing a Config.
func FromConfig(cfg Config) (Sampler, error) {
	var s Sampler
	switch cfg.Kind {
	case KindProbability, "":
		s = NewProbabilitySampler(cfg.P)
	case KindRateLimit:
		s = NewRateLimitSampler(cfg.MaxPerSecond)
	case KindNamespace:
		routes := make(map[string]Sampler, len(cfg.Routes))
		for k, inner := range cfg.Routes {
			built, err := FromConfig(inner)
			if err != nil {
				return nil, fmt.Errorf("sampler route %q: %w", k, err)
			}
			routes[k] = built
		}
		var fallback Sampler
		if cfg.Fallback != nil {
			built, err := FromConfig(*cfg.Fallback)
			if err != nil {
				return nil, fmt.Errorf("sampler fallback: %w", err)
			}
			fallback = built
		}
		s = NewNamespaceSampler(routes, fallback)
	case KindComposite:
		children := make([]Sampler, 0, len(cfg.Children))
		for i, child := range cfg.Children {
			built, err := FromConfig(child)
			if err != nil {
				return nil, fmt.Errorf("sampler child %d: %w", i, err)
			}
			children = append(children, built)
		}
		s = NewCompositeSampler(children...)
	default:
		return nil, fmt.Errorf("sampler: unknown kind %q", cfg.Kind)
	}
	if cfg.Bypass != nil {
		s = WithBypass(s, *cfg.Bypass)
	}
	return s, nil
}

// FromProbability is the shorthand promotion: a bare number in config
// becomes a probability sampler.
func FromProbability(p float64) Sampler {
	return NewProbabilitySampler(p)
}
