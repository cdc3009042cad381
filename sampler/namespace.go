package sampler

import "strings"

// NamespaceSampler routes a record to an inner sampler chosen by the
// longest matching namespace prefix. A route key ending in ".*" matches
// any namespace sharing that prefix (e.g. "api.*" matches "api.users");
// an exact key matches only that namespace. Records that match no route
// fall through to the default sampler, or are kept if none is set.
type NamespaceSampler struct {
	routes  map[string]Sampler
	fallthr Sampler
}

// NewNamespaceSampler builds a router from routes keyed by namespace or
// wildcard prefix ("api.*"). fallback is used when no route matches; a
// nil fallback keeps unmatched records.
func NewNamespaceSampler(routes map[string]Sampler, fallback Sampler) *NamespaceSampler {
	if fallback == nil {
		fallback = Always
	}
	cp := make(map[string]Sampler, len(routes))
	for k, v := range routes {
		cp[k] = v
	}
	return &NamespaceSampler{routes: cp, fallthr: fallback}
}

func (s *NamespaceSampler) ShouldSample(r Record) bool {
	return s.resolve(r.Namespace).ShouldSample(r)
}

func (s *NamespaceSampler) resolve(namespace string) Sampler {
	if exact, ok := s.routes[namespace]; ok {
		return exact
	}
	var best Sampler
	bestLen := -1
	for key, inner := range s.routes {
		prefix, isWildcard := strings.CutSuffix(key, ".*")
		if !isWildcard {
			continue
		}
		if namespace == prefix || strings.HasPrefix(namespace, prefix+".") {
			if len(prefix) > bestLen {
				best = inner
				bestLen = len(prefix)
			}
		}
	}
	if best != nil {
		return best
	}
	return s.fallthr
}
