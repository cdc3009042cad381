package sampler

import "golang.org/x/time/rate"

// RateLimitSampler keeps up to maxPerSecond records per second, backed
// by a token bucket that refills continuously rather than in discrete
// per-second windows.
type RateLimitSampler struct {
	limiter *rate.Limiter
}

// NewRateLimitSampler builds a sampler with bucket capacity and refill
// rate both set to maxPerSecond, matching the burst-tolerant behavior
// of a one-second token bucket.
func NewRateLimitSampler(maxPerSecond float64) *RateLimitSampler {
	if maxPerSecond < 0 {
		maxPerSecond = 0
	}
	burst := int(maxPerSecond)
	if maxPerSecond > 0 && burst < 1 {
		burst = 1
	}
	return &RateLimitSampler{limiter: rate.NewLimiter(rate.Limit(maxPerSecond), burst)}
}

func (s *RateLimitSampler) ShouldSample(Record) bool {
	return s.limiter.Allow()
}
