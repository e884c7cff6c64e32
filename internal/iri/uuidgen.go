package iri

import "github.com/google/uuid"

// UUID generates random, practically-unique term names. It keeps no counters
// and no prefixes, so its status is always empty.
type UUID struct{}

func (UUID) NextClassIRI() string              { return uuid.NewString() }
func (UUID) NextObjectPropertyIRI() string     { return uuid.NewString() }
func (UUID) NextDataPropertyIRI() string       { return uuid.NewString() }
func (UUID) NextAnnotationPropertyIRI() string { return uuid.NewString() }
func (UUID) NextIndividualIRI() string         { return uuid.NewString() }

// Next dispatches by kind. Unknown kinds return "".
func (g UUID) Next(kind Kind) string {
	switch kind {
	case KindClass, KindObjectProperty, KindDataProperty, KindAnnotationProperty, KindIndividual:
		return uuid.NewString()
	}
	return ""
}

// Status is always empty: there is nothing to persist.
func (UUID) Status() Status { return Status{} }

var (
	_ Generator = (*Sequential)(nil)
	_ Generator = UUID{}
)
