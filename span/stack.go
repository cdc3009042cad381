package span

import (
	"context"

	"github.com/arakiss-oss/vestig-go/propagation"
)

// activeStackKey is the context key carrying the active-span stack for
// this call chain.
type activeStackKeyType struct{}

var activeStackKey activeStackKeyType

// push returns a new context with span pushed on top of the active
// stack, and with the propagation layer's trace/span IDs overlaid to
// match.
func push(ctx context.Context, s *Span) context.Context {
	stack, _ := ctx.Value(activeStackKey).([]*Span)
	next := append(append([]*Span{}, stack...), s)
	ctx = context.WithValue(ctx, activeStackKey, next)
	return propagation.WithSpan(ctx, s)
}

// GetActiveSpan returns the top of ctx's active-span stack, or nil.
func GetActiveSpan(ctx context.Context) *Span {
	stack, _ := ctx.Value(activeStackKey).([]*Span)
	if len(stack) == 0 {
		return nil
	}
	return stack[len(stack)-1]
}

// EndSpan is idempotent: it sets endTime/duration, freezes the span,
// pops it from the active stack if it is on top, and notifies every
// registered span processor. Calling it more than once, or on a span
// that is not (or is no longer) the active one, is safe.
func EndSpan(ctx context.Context, s *Span) context.Context {
	if !s.end() {
		return ctx
	}
	notifyProcessors(s)

	stack, _ := ctx.Value(activeStackKey).([]*Span)
	if len(stack) == 0 || stack[len(stack)-1] != s {
		return ctx
	}
	popped := stack[:len(stack)-1]
	ctx = context.WithValue(ctx, activeStackKey, popped)
	if len(popped) > 0 {
		return propagation.WithSpan(ctx, popped[len(popped)-1])
	}
	return ctx
}

// Run is the scoped acquisition helper: it starts a span, pushes it
// onto the active stack, runs fn, sets status ok/error from fn's
// return, and guarantees EndSpan on every exit path including a
// panic (which it re-raises after recording the error status). This
// is the Go rendering of the spec's span(name, fn).
func Run(ctx context.Context, name string, fn func(ctx context.Context, s *Span) error) (err error) {
	s := StartSpan(name, Options{ParentSpan: GetActiveSpan(ctx)})
	scoped := push(ctx, s)

	defer func() {
		if r := recover(); r != nil {
			s.SetStatus(StatusError, "panic during span")
			EndSpan(scoped, s)
			panic(r)
		}
	}()

	err = fn(scoped, s)
	if err != nil {
		s.SetStatus(StatusError, err.Error())
	} else {
		s.SetStatus(StatusOK, "")
	}
	EndSpan(scoped, s)
	return err
}

// RunSync is identical to Run: the spec's spanSync(name, fn) exists to
// distinguish scoped acquisition around synchronous versus
// async/generator callbacks, a distinction Go's synchronous call
// semantics make moot.
func RunSync(ctx context.Context, name string, fn func(ctx context.Context, s *Span) error) error {
	return Run(ctx, name, fn)
}
