package propagation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSpan struct{ traceID, spanID string }

func (f fakeSpan) TraceID() string { return f.traceID }
func (f fakeSpan) SpanID() string  { return f.spanID }

func TestLogContextIsSnapshotValued(t *testing.T) {
	base := NewLogContext(map[string]any{KeyUserID: "u1"})
	child := base.WithField(KeySessionID, "s1")

	_, ok := base.Get(KeySessionID)
	assert.False(t, ok, "WithField must not mutate the receiver")

	v, ok := child.Get(KeySessionID)
	require.True(t, ok)
	assert.Equal(t, "s1", v)
}

func TestWithContextRestoresOnEveryExit(t *testing.T) {
	ctx := context.Background()
	outer := NewLogContext(map[string]any{KeyRequestID: "outer"})
	ctx = WithContext(ctx, outer)

	func() {
		inner := NewLogContext(map[string]any{KeyRequestID: "inner"})
		innerCtx := WithContext(ctx, inner)
		v, _ := FromContext(innerCtx).Get(KeyRequestID)
		assert.Equal(t, "inner", v)
	}()

	v, _ := FromContext(ctx).Get(KeyRequestID)
	assert.Equal(t, "outer", v, "outer ctx must be unaffected by the inner scope")
}

func TestWithSpanOverlaysTraceAndSpanID(t *testing.T) {
	ctx := context.Background()
	a := fakeSpan{traceID: "trace-a", spanID: "span-a"}
	b := fakeSpan{traceID: "trace-a", spanID: "span-b"}

	ctxA := WithSpan(ctx, a)
	assert.Equal(t, a, ActiveSpan(ctxA))
	lc := FromContext(ctxA)
	tid, _ := lc.Get(KeyTraceID)
	sid, _ := lc.Get(KeySpanID)
	assert.Equal(t, "trace-a", tid)
	assert.Equal(t, "span-a", sid)

	ctxB := WithSpan(ctxA, b)
	assert.Equal(t, b, ActiveSpan(ctxB))
	assert.Equal(t, a, ActiveSpan(ctxA), "pushing onto ctxB must not affect ctxA")
}

func TestAmbientRestoresOnPanic(t *testing.T) {
	a := &Ambient{}
	outer := NewLogContext(map[string]any{KeyRequestID: "outer"})

	a.With(outer, func() {
		func() {
			defer func() { recover() }()
			inner := NewLogContext(map[string]any{KeyRequestID: "inner"})
			a.With(inner, func() {
				panic("boom")
			})
		}()
		v, _ := a.Current().Get(KeyRequestID)
		assert.Equal(t, "outer", v)
	})
}
