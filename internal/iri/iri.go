// Package iri generates identifiers for ontology terms created through the
// platform. The sequential generator keeps five independent counters, one per
// term kind, each with its own name prefix and suffix seed; the UUID
// generator is the stateless alternative.
package iri

// Kind enumerates the ontology term kinds that get their own counter.
type Kind string

const (
	KindClass              Kind = "class"
	KindObjectProperty     Kind = "object_property"
	KindDataProperty       Kind = "data_property"
	KindAnnotationProperty Kind = "annotation_property"
	KindIndividual         Kind = "individual"
)

// Kinds lists every term kind in canonical order.
func Kinds() []Kind {
	return []Kind{KindClass, KindObjectProperty, KindDataProperty, KindAnnotationProperty, KindIndividual}
}

// Generator produces entity IRIs for the five term kinds. Implementations
// must never hand the same IRI to two concurrent callers.
type Generator interface {
	NextClassIRI() string
	NextObjectPropertyIRI() string
	NextDataPropertyIRI() string
	NextAnnotationPropertyIRI() string
	NextIndividualIRI() string
	// Next dispatches by kind; unknown kinds return "".
	Next(kind Kind) string
	// Status is a pure snapshot of the generator state, safe to persist.
	Status() Status
}
