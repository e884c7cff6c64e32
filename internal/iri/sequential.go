package iri

import (
	"strconv"
	"sync"
)

// counter is one term kind's state. Nil prefix/suffix mean "never configured";
// they generate as "" and 0 but are reported as absent in the status.
type counter struct {
	prefix *string
	suffix *int64
}

func (c counter) effectivePrefix() string {
	if c.prefix == nil {
		return ""
	}
	return *c.prefix
}

func (c counter) effectiveSuffix() int64 {
	if c.suffix == nil {
		return 0
	}
	return *c.suffix
}

// Sequential generates monotonically increasing, prefixed IRIs. The mutex
// makes the read-then-increment atomic: two concurrent callers can never
// observe the same suffix.
type Sequential struct {
	mu        sync.Mutex
	iriPrefix string
	counters  map[Kind]*counter
}

// Option configures a Sequential generator at construction time.
type Option func(*Sequential)

// WithIRIPrefix sets the shared IRI prefix prepended to every generated name.
func WithIRIPrefix(prefix string) Option {
	return func(s *Sequential) { s.iriPrefix = prefix }
}

// WithPrefix sets the name prefix for one term kind.
func WithPrefix(kind Kind, prefix string) Option {
	return func(s *Sequential) { s.counters[kind].prefix = &prefix }
}

// WithSeed sets the starting suffix for one term kind. Unset seeds default
// to zero.
func WithSeed(kind Kind, seed int64) Option {
	return func(s *Sequential) { s.counters[kind].suffix = &seed }
}

// NewSequential builds a sequential generator.
func NewSequential(opts ...Option) *Sequential {
	s := &Sequential{counters: make(map[Kind]*counter, len(Kinds()))}
	for _, k := range Kinds() {
		s.counters[k] = &counter{}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FromStatus reconstructs a generator that continues exactly where the
// snapshot left off.
func FromStatus(st Status) *Sequential {
	s := NewSequential(WithIRIPrefix(st.IRIPrefix))
	for _, k := range Kinds() {
		ks := st.kind(k)
		if ks.Prefix != nil {
			p := *ks.Prefix
			s.counters[k].prefix = &p
		}
		if ks.Suffix != nil {
			n := *ks.Suffix
			s.counters[k].suffix = &n
		}
	}
	return s
}

func (s *Sequential) next(kind Kind) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.counters[kind]
	n := c.effectiveSuffix()
	iri := s.iriPrefix + c.effectivePrefix() + strconv.FormatInt(n, 10)
	n++
	c.suffix = &n
	return iri
}

func (s *Sequential) NextClassIRI() string              { return s.next(KindClass) }
func (s *Sequential) NextObjectPropertyIRI() string     { return s.next(KindObjectProperty) }
func (s *Sequential) NextDataPropertyIRI() string       { return s.next(KindDataProperty) }
func (s *Sequential) NextAnnotationPropertyIRI() string { return s.next(KindAnnotationProperty) }
func (s *Sequential) NextIndividualIRI() string         { return s.next(KindIndividual) }

// Next dispatches by kind. Unknown kinds return "".
func (s *Sequential) Next(kind Kind) string {
	if _, ok := s.counters[kind]; !ok {
		return ""
	}
	return s.next(kind)
}

// Status snapshots the full generator state. Unconfigured prefixes and
// never-advanced suffixes are reported as absent.
func (s *Sequential) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{IRIPrefix: s.iriPrefix}
	for _, k := range Kinds() {
		c := s.counters[k]
		ks := KindStatus{}
		if c.prefix != nil {
			p := *c.prefix
			ks.Prefix = &p
		}
		if c.suffix != nil {
			n := *c.suffix
			ks.Suffix = &n
		}
		st.setKind(k, ks)
	}
	return st
}

// Equal reports whether two generators would produce identical future
// sequences: same IRI prefix and, per kind, same effective prefix and suffix.
func (s *Sequential) Equal(o *Sequential) bool {
	if s == o {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	o.mu.Lock()
	defer o.mu.Unlock()
	if s.iriPrefix != o.iriPrefix {
		return false
	}
	for _, k := range Kinds() {
		a, b := s.counters[k], o.counters[k]
		if a.effectivePrefix() != b.effectivePrefix() || a.effectiveSuffix() != b.effectiveSuffix() {
			return false
		}
	}
	return true
}
