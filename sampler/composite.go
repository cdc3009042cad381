package sampler

// CompositeSampler requires every child sampler to accept a record
// (logical AND). An empty composite keeps everything.
type CompositeSampler struct {
	children []Sampler
}

func NewCompositeSampler(children ...Sampler) *CompositeSampler {
	return &CompositeSampler{children: append([]Sampler{}, children...)}
}

func (s *CompositeSampler) ShouldSample(r Record) bool {
	for _, c := range s.children {
		if !c.ShouldSample(r) {
			return false
		}
	}
	return true
}
