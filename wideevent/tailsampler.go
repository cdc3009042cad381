package wideevent

import "math/rand"

// TailSamplerConfig tunes the keep/drop decision applied to a frozen
// WideEvent at End time, before it reaches the logger.
type TailSamplerConfig struct {
	// AlwaysKeepStatuses are statuses that bypass every other check.
	AlwaysKeepStatuses []Status
	// SlowThresholdMS, if non-zero, keeps events at or above this
	// duration regardless of status.
	SlowThresholdMS int64
	// TierFieldPath is a "category.key" path into Fields consulted
	// against VIPTiers. Defaults to "user.subscription".
	TierFieldPath string
	VIPTiers      []string
	// VIPUserIDs are checked against Context["userId"].
	VIPUserIDs []string
	// SuccessSampleRate governs everything that reaches this point
	// without already being kept: 0 drops all of it, 1.0 keeps all of
	// it. The value is used as given, so the zero value drops them.
	SuccessSampleRate float64

	rand func() float64
}

// TailSampler applies TailSamplerConfig's rules to decide whether a
// frozen WideEvent should be emitted.
type TailSampler struct {
	cfg TailSamplerConfig
}

// NewTailSampler builds a TailSampler, filling in the documented
// defaults for zero fields.
func NewTailSampler(cfg TailSamplerConfig) *TailSampler {
	if cfg.TierFieldPath == "" {
		cfg.TierFieldPath = "user.subscription"
	}
	if cfg.rand == nil {
		cfg.rand = rand.Float64
	}
	return &TailSampler{cfg: cfg}
}

// ShouldKeep decides whether e should be emitted.
func (t *TailSampler) ShouldKeep(e WideEvent) bool {
	for _, s := range t.cfg.AlwaysKeepStatuses {
		if e.Status == s {
			return true
		}
	}
	if t.cfg.SlowThresholdMS > 0 && e.DurationMS >= t.cfg.SlowThresholdMS {
		return true
	}
	if t.matchesVIPTier(e) || t.matchesVIPUser(e) {
		return true
	}
	if t.cfg.SuccessSampleRate <= 0 {
		return false
	}
	if t.cfg.SuccessSampleRate >= 1 {
		return true
	}
	return t.cfg.rand() < t.cfg.SuccessSampleRate
}

func (t *TailSampler) matchesVIPTier(e WideEvent) bool {
	if len(t.cfg.VIPTiers) == 0 {
		return false
	}
	value, ok := lookupPath(e.Fields, t.cfg.TierFieldPath)
	if !ok {
		return false
	}
	s, ok := value.(string)
	if !ok {
		return false
	}
	for _, tier := range t.cfg.VIPTiers {
		if tier == s {
			return true
		}
	}
	return false
}

func (t *TailSampler) matchesVIPUser(e WideEvent) bool {
	if len(t.cfg.VIPUserIDs) == 0 {
		return false
	}
	userID, ok := e.Context["userId"].(string)
	if !ok {
		return false
	}
	for _, id := range t.cfg.VIPUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// lookupPath splits "category.key" and indexes into fields.
func lookupPath(fields map[string]map[string]any, path string) (any, bool) {
	dot := -1
	for i := 0; i < len(path); i++ {
		if path[i] == '.' {
			dot = i
			break
		}
	}
	if dot < 0 {
		return nil, false
	}
	category, key := path[:dot], path[dot+1:]
	cat, ok := fields[category]
	if !ok {
		return nil, false
	}
	v, ok := cat[key]
	return v, ok
}
