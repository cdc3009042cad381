package sampler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbabilitySamplerEdges(t *testing.T) {
	assert.False(t, NewProbabilitySampler(0).ShouldSample(Record{}))
	assert.True(t, NewProbabilitySampler(1).ShouldSample(Record{}))
}

func TestProbabilitySamplerConvergesToP(t *testing.T) {
	const n = 20000
	const p = 0.3
	s := NewProbabilitySampler(p)
	kept := 0
	for i := 0; i < n; i++ {
		if s.ShouldSample(Record{}) {
			kept++
		}
	}
	ratio := float64(kept) / n
	assert.InDelta(t, p, ratio, 0.02)
}

func TestRateLimitSamplerConsumesTokens(t *testing.T) {
	s := NewRateLimitSampler(2)
	first := s.ShouldSample(Record{})
	second := s.ShouldSample(Record{})
	third := s.ShouldSample(Record{})
	assert.True(t, first)
	assert.True(t, second)
	assert.False(t, third, "bucket of capacity 2 must reject the third immediate draw")
}

func TestRateLimitSamplerZeroAlwaysDrops(t *testing.T) {
	s := NewRateLimitSampler(0)
	assert.False(t, s.ShouldSample(Record{}))
}

func TestNamespaceSamplerLongestPrefixMatch(t *testing.T) {
	s := NewNamespaceSampler(map[string]Sampler{
		"api.*":       Never,
		"api.users.*": Always,
		"worker":      Always,
	}, Never)

	assert.True(t, s.ShouldSample(Record{Namespace: "api.users.create"}), "more specific api.users.* must win over api.*")
	assert.False(t, s.ShouldSample(Record{Namespace: "api.orders"}))
	assert.True(t, s.ShouldSample(Record{Namespace: "worker"}))
	assert.False(t, s.ShouldSample(Record{Namespace: "unrouted"}), "unmatched namespace falls through to fallback")
}

func TestCompositeSamplerIsLogicalAnd(t *testing.T) {
	s := NewCompositeSampler(Always, Always)
	assert.True(t, s.ShouldSample(Record{}))

	s2 := NewCompositeSampler(Always, Never)
	assert.False(t, s2.ShouldSample(Record{}))

	empty := NewCompositeSampler()
	assert.True(t, empty.ShouldSample(Record{}), "an empty composite keeps everything")
}

func TestBypassPolicySkipsInnerSamplerAboveLevel(t *testing.T) {
	b := WithBypass(Never, DefaultBypassConfig())

	assert.True(t, b.ShouldSample(Record{Level: LevelError}), "errors must bypass Never when alwaysSampleErrors is set")
	assert.False(t, b.ShouldSample(Record{Level: LevelInfo}), "below bypassLevel, the inner sampler still governs")
}

func TestBypassPolicyDisabledDefersToInner(t *testing.T) {
	b := WithBypass(Always, BypassConfig{AlwaysSampleErrors: false})
	assert.True(t, b.ShouldSample(Record{Level: LevelError}), "inner sampler (Always) still governs when bypass is off")

	b2 := WithBypass(Never, BypassConfig{AlwaysSampleErrors: false})
	assert.False(t, b2.ShouldSample(Record{Level: LevelError}))
}

func TestFromConfigProbabilityShorthand(t *testing.T) {
	s := FromProbability(1)
	assert.True(t, s.ShouldSample(Record{}))
}

func TestFromConfigBuildsNamespaceTree(t *testing.T) {
	s, err := FromConfig(Config{
		Kind: KindNamespace,
		Routes: map[string]Config{
			"api.*": {Kind: KindProbability, P: 0},
		},
		Fallback: &Config{Kind: KindProbability, P: 1},
	})
	require.NoError(t, err)
	assert.False(t, s.ShouldSample(Record{Namespace: "api.users"}))
	assert.True(t, s.ShouldSample(Record{Namespace: "worker"}))
}

func TestFromConfigCompositeWithBypass(t *testing.T) {
	bypass := DefaultBypassConfig()
	s, err := FromConfig(Config{
		Kind: KindComposite,
		Children: []Config{
			{Kind: KindProbability, P: 0},
		},
		Bypass: &bypass,
	})
	require.NoError(t, err)
	assert.False(t, s.ShouldSample(Record{Level: LevelInfo}))
	assert.True(t, s.ShouldSample(Record{Level: LevelError}), "bypass must override the zero-probability composite")
}

func TestFromConfigRejectsUnknownKind(t *testing.T) {
	_, err := FromConfig(Config{Kind: "bogus"})
	assert.Error(t, err)
}
