// Package sanitize walks arbitrary value graphs and redacts sensitive
// fields and value patterns under a configurable preset policy.
package sanitize

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
)

// Preset selects a built-in redaction policy.
type Preset string

const (
	PresetNone    Preset = "none"
	PresetMinimal Preset = "minimal"
	PresetDefault Preset = "default"
	PresetGDPR    Preset = "gdpr"
	PresetHIPAA   Preset = "hipaa"
	PresetPCIDSS  Preset = "pci-dss"
)

const (
	defaultReplacement  = "[REDACTED]"
	defaultMaxDepth      = 10
	defaultMaxStringLen  = 4096
	circularMarker       = "[Circular Reference]"
	truncatedMarkerSfx   = "...[TRUNCATED]"
)

// Config controls a Sanitizer's behavior.
type Config struct {
	Preset         Preset
	CustomFields   []string
	CustomPatterns []*regexp.Regexp
	Replacement    string
	MaxDepth       int
	MaxStringLen   int
}

// IsValidPreset reports whether p is one of the built-in presets.
func IsValidPreset(p Preset) bool {
	switch p {
	case PresetNone, PresetMinimal, PresetDefault, PresetGDPR, PresetHIPAA, PresetPCIDSS:
		return true
	default:
		return false
	}
}

// DefaultConfig returns the "default" preset with standard limits.
func DefaultConfig() Config {
	return Config{
		Preset:       PresetDefault,
		Replacement:  defaultReplacement,
		MaxDepth:     defaultMaxDepth,
		MaxStringLen: defaultMaxStringLen,
	}
}

// Sanitizer redacts sensitive fields and value patterns from a value
// graph according to its Config.
type Sanitizer struct {
	cfg          Config
	fieldMatcher fieldMatcher
	patterns     []patternRule
}

// New builds a Sanitizer from cfg, filling in defaults for zero fields.
func New(cfg Config) *Sanitizer {
	if cfg.Replacement == "" {
		cfg.Replacement = defaultReplacement
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = defaultMaxDepth
	}
	if cfg.MaxStringLen <= 0 {
		cfg.MaxStringLen = defaultMaxStringLen
	}
	fields := append([]string{}, presetFieldSets[cfg.Preset]...)
	fields = append(fields, cfg.CustomFields...)
	patterns := append([]patternRule{}, presetPatterns[cfg.Preset]...)
	for _, p := range cfg.CustomPatterns {
		patterns = append(patterns, patternRule{re: p, mask: fullRedact})
	}
	return &Sanitizer{
		cfg:          cfg,
		fieldMatcher: newFieldMatcher(fields),
		patterns:     patterns,
	}
}

// Sanitize returns a redacted copy of v. It never panics: unserializable
// or hostile input degrades to a stringified marker instead.
func (s *Sanitizer) Sanitize(v any) (result any) {
	if s.cfg.Preset == PresetNone {
		return v
	}
	defer func() {
		if r := recover(); r != nil {
			result = fmt.Sprintf("[unserializable: %v]", r)
		}
	}()
	visited := map[uintptr]struct{}{}
	return s.walk(v, visited)
}

// walkFrame is one unit of pending work on the explicit stack walk uses
// in place of recursion: either a value still to be classified and
// redacted (dest receives its final form), or a finish marker that
// clears a cycle-detection entry once every child pushed for that
// container has been processed.
type walkFrame struct {
	value  any
	depth  int
	dest   func(any)
	finish func()
}

// walk redacts v's value graph using an explicit stack rather than
// recursive descent, so a hostile, deeply nested input cannot exhaust
// the goroutine stack — only the bounded MaxDepth check below limits
// how deep a branch is ever followed.
func (s *Sanitizer) walk(v any, visited map[uintptr]struct{}) any {
	var result any
	stack := []walkFrame{{value: v, depth: 0, dest: func(r any) { result = r }}}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if f.finish != nil {
			f.finish()
			continue
		}

		if f.depth >= s.cfg.MaxDepth {
			f.dest("[Max Depth Exceeded]")
			continue
		}
		if f.value == nil {
			f.dest(nil)
			continue
		}

		rv := reflect.ValueOf(f.value)
		switch rv.Kind() {
		case reflect.Map:
			if rv.IsNil() {
				f.dest(nil)
				continue
			}
			ptr := rv.Pointer()
			if _, seen := visited[ptr]; seen {
				f.dest(circularMarker)
				continue
			}
			visited[ptr] = struct{}{}
			out := make(map[string]any, rv.Len())
			f.dest(out)
			stack = append(stack, walkFrame{finish: func() { delete(visited, ptr) }})
			for _, key := range rv.MapKeys() {
				k := fmt.Sprint(key.Interface())
				val := rv.MapIndex(key).Interface()
				if s.fieldMatcher.matches(k) {
					out[k] = s.cfg.Replacement
					continue
				}
				dstKey := k
				stack = append(stack, walkFrame{value: val, depth: f.depth + 1, dest: func(r any) { out[dstKey] = r }})
			}

		case reflect.Slice, reflect.Array:
			if rv.Kind() == reflect.Slice && rv.IsNil() {
				f.dest(nil)
				continue
			}
			var ptr uintptr
			isSlice := rv.Kind() == reflect.Slice
			if isSlice {
				ptr = rv.Pointer()
				if _, seen := visited[ptr]; seen {
					f.dest(circularMarker)
					continue
				}
				visited[ptr] = struct{}{}
			}
			out := make([]any, rv.Len())
			f.dest(out)
			if isSlice {
				stack = append(stack, walkFrame{finish: func() { delete(visited, ptr) }})
			}
			for i := 0; i < rv.Len(); i++ {
				i := i
				stack = append(stack, walkFrame{value: rv.Index(i).Interface(), depth: f.depth + 1, dest: func(r any) { out[i] = r }})
			}

		case reflect.Ptr, reflect.Interface:
			if rv.IsNil() {
				f.dest(nil)
				continue
			}
			stack = append(stack, walkFrame{value: rv.Elem().Interface(), depth: f.depth, dest: f.dest})

		case reflect.String:
			f.dest(s.sanitizeString(rv.String()))

		default:
			f.dest(f.value)
		}
	}

	return result
}

func (s *Sanitizer) sanitizeString(str string) string {
	if len(str) > s.cfg.MaxStringLen {
		str = str[:s.cfg.MaxStringLen] + truncatedMarkerSfx
	}
	for _, p := range s.patterns {
		str = p.apply(str)
	}
	return str
}

// fieldMatcher matches a field name case-insensitively and ignoring
// underscore/dash separators, so "api_key", "api-key", and "apiKey" all
// match a configured "apiKey" rule.
type fieldMatcher struct {
	normalized map[string]struct{}
}

func newFieldMatcher(fields []string) fieldMatcher {
	m := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		m[normalizeFieldName(f)] = struct{}{}
	}
	return fieldMatcher{normalized: m}
}

func (m fieldMatcher) matches(name string) bool {
	_, ok := m.normalized[normalizeFieldName(name)]
	return ok
}

func normalizeFieldName(name string) string {
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, "_", "")
	name = strings.ReplaceAll(name, "-", "")
	return name
}
