package span

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNestedSpanCorrelation(t *testing.T) {
	ctx := context.Background()
	var outerID, innerTraceA, innerTraceB string
	var spanBID string

	err := Run(ctx, "a", func(ctx context.Context, a *Span) error {
		outerID = a.SpanID()
		return Run(ctx, "b", func(ctx context.Context, b *Span) error {
			assert.Equal(t, a.TraceID(), b.TraceID(), "nested span must share the parent's traceId")
			assert.Equal(t, a.SpanID(), b.ParentSpanID())
			innerTraceA = a.TraceID()
			innerTraceB = b.TraceID()
			spanBID = b.SpanID()

			assert.Same(t, b, GetActiveSpan(ctx), "innermost span must be active while inside")
			return nil
		})
	})
	require.NoError(t, err)
	assert.Equal(t, innerTraceA, innerTraceB)
	assert.NotEqual(t, outerID, spanBID)
	assert.Nil(t, GetActiveSpan(ctx), "no span must be active after the outer scope exits")
}

func TestActiveSpanRestoredBetweenNestedScopes(t *testing.T) {
	ctx := context.Background()
	_ = Run(ctx, "a", func(ctx context.Context, a *Span) error {
		_ = Run(ctx, "b", func(ctx context.Context, b *Span) error {
			return nil
		})
		assert.Same(t, a, GetActiveSpan(ctx), "between the inner scope's exit and the outer's, a must be active again")
		return nil
	})
}

func TestEndedSpanDiscardsFurtherMutation(t *testing.T) {
	s := StartSpan("x", Options{})
	s.SetAttribute("k", "v")
	EndSpan(context.Background(), s)

	s.SetAttribute("k2", "v2")
	s.AddEvent("late", nil)
	s.SetStatus(StatusError, "too late")

	attrs := s.Attributes()
	assert.Equal(t, "v", attrs["k"])
	_, hasK2 := attrs["k2"]
	assert.False(t, hasK2, "mutation after EndSpan must be silently discarded")
	assert.Empty(t, s.Events())
	status, _ := s.Status()
	assert.Equal(t, StatusUnset, status)
}

func TestEndSpanIsIdempotent(t *testing.T) {
	s := StartSpan("x", Options{})
	ctx := push(context.Background(), s)

	ctx = EndSpan(ctx, s)
	firstEnd := s.EndTimeMS()
	time.Sleep(2 * time.Millisecond)
	ctx = EndSpan(ctx, s)

	assert.Equal(t, firstEnd, s.EndTimeMS(), "a second EndSpan must not move endTime")
	assert.Nil(t, GetActiveSpan(ctx))
}

func TestRunSetsErrorStatusOnFailure(t *testing.T) {
	boom := errors.New("boom")
	var captured *Span
	_ = Run(context.Background(), "x", func(ctx context.Context, s *Span) error {
		captured = s
		return boom
	})
	status, msg := captured.Status()
	assert.Equal(t, StatusError, status)
	assert.Equal(t, "boom", msg)
}

func TestRunEndsSpanOnPanic(t *testing.T) {
	s := &Span{}
	defer func() {
		recover()
		assert.True(t, s.Ended())
	}()
	_ = Run(context.Background(), "x", func(ctx context.Context, inner *Span) error {
		s = inner
		panic("boom")
	})
}

type fakeProcessor struct {
	ended      []ReadOnlySpan
	shutdownCh chan struct{}
}

func (f *fakeProcessor) OnEnd(s ReadOnlySpan) { f.ended = append(f.ended, s) }
func (f *fakeProcessor) Shutdown(ctx context.Context) error {
	if f.shutdownCh != nil {
		close(f.shutdownCh)
	}
	return nil
}

func TestProcessorsNotifiedOnEnd(t *testing.T) {
	ResetProcessors()
	defer ResetProcessors()

	fp := &fakeProcessor{}
	RegisterProcessor(fp)

	s := StartSpan("x", Options{})
	EndSpan(context.Background(), s)

	require.Len(t, fp.ended, 1)
	assert.Equal(t, "x", fp.ended[0].Name())
}

func TestShutdownSpanProcessorsClearsRegistry(t *testing.T) {
	ResetProcessors()
	fp := &fakeProcessor{shutdownCh: make(chan struct{})}
	RegisterProcessor(fp)

	err := ShutdownSpanProcessors(context.Background(), time.Second)
	require.NoError(t, err)

	select {
	case <-fp.shutdownCh:
	default:
		t.Fatal("shutdown was not called")
	}

	fp2 := &fakeProcessor{}
	RegisterProcessor(fp2)
	s := StartSpan("y", Options{})
	EndSpan(context.Background(), s)
	assert.Empty(t, fp.ended, "the first processor must have been dropped from the registry")
	assert.Len(t, fp2.ended, 1)
}
