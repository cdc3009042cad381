// Package wideevent implements the accumulate-then-emit-once "wide
// event" pattern: a Builder gathers fields across the lifetime of a
// request and freezes into an immutable WideEvent at end(), which a
// TailSampler then decides to keep or drop.
package wideevent

import (
	"sync"
	"time"

	"github.com/arakiss-oss/vestig-go/capability"
	"github.com/arakiss-oss/vestig-go/sampler"
)

// Status is a wide event's terminal outcome.
type Status string

const (
	StatusSuccess   Status = "success"
	StatusError     Status = "error"
	StatusTimeout   Status = "timeout"
	StatusCancelled Status = "cancelled"
)

// Builder accumulates fields across a request's lifetime under named
// categories (e.g. "http", "db", "user") and freezes into a WideEvent
// on End. Every chainable method is ignored once the builder has
// ended.
type Builder struct {
	mu        sync.Mutex
	eventType string
	startMS   int64
	context   map[string]any
	fields    map[string]map[string]any
	ended     bool
	frozen    WideEvent
}

// New starts a Builder for an event of the given type, stamping the
// start time immediately.
func New(eventType string) *Builder {
	return &Builder{
		eventType: eventType,
		startMS:   capability.NowMS(),
		context:   map[string]any{},
		fields:    map[string]map[string]any{},
	}
}

// Set records a single key under category. Returns the receiver for
// chaining.
func (b *Builder) Set(category, key string, value any) *Builder {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ended {
		return b
	}
	cat, ok := b.fields[category]
	if !ok {
		cat = map[string]any{}
		b.fields[category] = cat
	}
	cat[key] = value
	return b
}

// Merge records every entry of fields under category.
func (b *Builder) Merge(category string, fields map[string]any) *Builder {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ended {
		return b
	}
	cat, ok := b.fields[category]
	if !ok {
		cat = map[string]any{}
		b.fields[category] = cat
	}
	for k, v := range fields {
		cat[k] = v
	}
	return b
}

// MergeAll records every category→fields pair in one call.
func (b *Builder) MergeAll(all map[string]map[string]any) *Builder {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ended {
		return b
	}
	for category, fields := range all {
		cat, ok := b.fields[category]
		if !ok {
			cat = map[string]any{}
			b.fields[category] = cat
		}
		for k, v := range fields {
			cat[k] = v
		}
	}
	return b
}

// SetContext replaces the builder's request context snapshot.
func (b *Builder) SetContext(ctx map[string]any) *Builder {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ended {
		return b
	}
	cp := make(map[string]any, len(ctx))
	for k, v := range ctx {
		cp[k] = v
	}
	b.context = cp
	return b
}

// GetContext returns a defensive copy of the current context.
func (b *Builder) GetContext() map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	cp := make(map[string]any, len(b.context))
	for k, v := range b.context {
		cp[k] = v
	}
	return cp
}

// GetFields returns a defensive deep copy of the accumulated
// category→fields map.
func (b *Builder) GetFields() map[string]map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]map[string]any, len(b.fields))
	for category, fields := range b.fields {
		cp := make(map[string]any, len(fields))
		for k, v := range fields {
			cp[k] = v
		}
		out[category] = cp
	}
	return out
}

// EndOptions controls End's outcome derivation.
type EndOptions struct {
	Status     Status // zero value triggers inference from Error
	Error      map[string]any
	Runtime    string
	ForceLevel sampler.Level // zero value (LevelTrace) means "infer"
}

// WideEvent is the immutable, frozen result of Builder.End.
type WideEvent struct {
	EventType  string
	StartedAt  int64
	EndedAt    int64
	DurationMS int64
	Status     Status
	Context    map[string]any
	Runtime    string
	Fields     map[string]map[string]any
	Error      map[string]any
	Level      sampler.Level
}

// End freezes the builder: further mutation is ignored, status is
// taken from opts.Status or inferred (error if opts.Error is set,
// else success), and level is Error on failure, else Info. End is
// idempotent: calling it again returns the same frozen value.
func (b *Builder) End(opts EndOptions) WideEvent {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ended {
		return b.frozen
	}
	b.ended = true

	status := opts.Status
	if status == "" {
		if opts.Error != nil {
			status = StatusError
		} else {
			status = StatusSuccess
		}
	}

	level := opts.ForceLevel
	if level == 0 && status == StatusError {
		level = sampler.LevelError
	} else if level == 0 {
		level = sampler.LevelInfo
	}

	now := capability.NowMS()
	b.frozen = WideEvent{
		EventType:  b.eventType,
		StartedAt:  b.startMS,
		EndedAt:    now,
		DurationMS: now - b.startMS,
		Status:     status,
		Context:    b.context,
		Runtime:    opts.Runtime,
		Fields:     b.fields,
		Error:      opts.Error,
		Level:      level,
	}
	return b.frozen
}
