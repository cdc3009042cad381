package correlation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateTraceIDShapeAndUniqueness(t *testing.T) {
	a := GenerateTraceID()
	b := GenerateTraceID()
	require.Len(t, a, 32)
	assert.Regexp(t, `^[0-9a-f]{32}$`, a)
	assert.NotEqual(t, a, b)
}

func TestGenerateSpanIDShape(t *testing.T) {
	id := GenerateSpanID()
	require.Len(t, id, 16)
	assert.Regexp(t, `^[0-9a-f]{16}$`, id)
}

func TestGenerateRequestIDIsUUIDv4(t *testing.T) {
	id := GenerateRequestID()
	assert.Regexp(t, `^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`, id)
}

func TestTraceparentRoundTrip(t *testing.T) {
	ids, ok := ParseTraceparent("00-0af7651916cd43dd8448eb211c80319c-b7ad6b7169203331-01")
	require.True(t, ok)
	assert.Equal(t, "0af7651916cd43dd8448eb211c80319c", ids.TraceID)
	assert.Equal(t, "b7ad6b7169203331", ids.SpanID)

	tp := CreateTraceparent(ids.TraceID, ids.SpanID)
	again, ok := ParseTraceparent(tp)
	require.True(t, ok)
	assert.Equal(t, ids, again)
}

func TestTraceparentRejectsBadVersion(t *testing.T) {
	_, ok := ParseTraceparent("01-0af7651916cd43dd8448eb211c80319c-b7ad6b7169203331-01")
	assert.False(t, ok)

	_, ok = ParseTraceparent("ff-0af7651916cd43dd8448eb211c80319c-b7ad6b7169203331-01")
	assert.False(t, ok)
}

func TestTraceparentRejectsWrongShape(t *testing.T) {
	cases := []string{
		"",
		"00-short-b7ad6b7169203331-01",
		"00-0af7651916cd43dd8448eb211c80319c-tooshort-01",
		"00-0af7651916cd43dd8448eb211c80319c-b7ad6b7169203331",
		"00-0af7651916cd43dd8448eb211c80319c-b7ad6b7169203331-01-extra",
	}
	for _, c := range cases {
		_, ok := ParseTraceparent(c)
		assert.Falsef(t, ok, "expected rejection for %q", c)
	}
}

func TestTraceparentLeniency(t *testing.T) {
	// All-zero IDs and uppercase hex are accepted leniently (Postel's Law).
	ids, ok := ParseTraceparent("00-00000000000000000000000000000000-0000000000000000-01")
	require.True(t, ok)
	assert.Equal(t, "00000000000000000000000000000000", ids.TraceID)

	_, ok = ParseTraceparent("00-0AF7651916CD43DD8448EB211C80319C-B7AD6B7169203331-01")
	assert.True(t, ok)
}

func TestTracestateRoundTrip(t *testing.T) {
	entries := []TracestateEntry{
		{Key: "rojo", Value: "00f067aa0ba902b7"},
		{Key: "congo", Value: "t61rcWkgMzE"},
	}
	s := CreateTracestate(entries)
	parsed := ParseTracestate(s)
	assert.Equal(t, entries, parsed)
}

func TestTracestateRejectsInvalidKeysAndValues(t *testing.T) {
	assert.Nil(t, ParseTracestate("BadKey=value"))
	assert.Nil(t, ParseTracestate("ok=has,comma"))
	assert.Nil(t, ParseTracestate("ok=has=equals"))
	assert.Nil(t, ParseTracestate("noequalssign"))
}

func TestTracestateLimitsToThirtyTwoEntries(t *testing.T) {
	var sb []string
	for i := 0; i < 40; i++ {
		sb = append(sb, "k"+string(rune('a'+i%26))+"=v")
	}
	parsed := ParseTracestate(joinComma(sb))
	assert.LessOrEqual(t, len(parsed), 32)
}

func TestSetTracestateValuePrependsAndDedupes(t *testing.T) {
	entries := []TracestateEntry{{Key: "a", Value: "1"}, {Key: "b", Value: "2"}}
	next := SetTracestateValue(entries, "a", "99")
	require.Len(t, next, 2)
	assert.Equal(t, TracestateEntry{Key: "a", Value: "99"}, next[0])
	assert.Equal(t, TracestateEntry{Key: "b", Value: "2"}, next[1])
}

func TestDeleteAndGetTracestateKey(t *testing.T) {
	entries := []TracestateEntry{{Key: "a", Value: "1"}, {Key: "b", Value: "2"}}
	v, ok := GetTracestateValue(entries, "b")
	require.True(t, ok)
	assert.Equal(t, "2", v)

	next := DeleteTracestateKey(entries, "a")
	require.Len(t, next, 1)
	assert.Equal(t, "b", next[0].Key)
}

func joinComma(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ","
		}
		out += p
	}
	return out
}
