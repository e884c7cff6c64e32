package iri

// KindStatus is one counter's persisted state. Nil fields are absent and
// marshal as omitted, never as null.
type KindStatus struct {
	Prefix *string `json:"prefix,omitempty"`
	Suffix *int64  `json:"suffix,omitempty"`
}

// Status is the full generator snapshot. It is a pure value: mutating a
// status never affects the generator it came from.
type Status struct {
	IRIPrefix          string     `json:"iri_prefix,omitempty"`
	Class              KindStatus `json:"class,omitzero"`
	ObjectProperty     KindStatus `json:"object_property,omitzero"`
	DataProperty       KindStatus `json:"data_property,omitzero"`
	AnnotationProperty KindStatus `json:"annotation_property,omitzero"`
	Individual         KindStatus `json:"individual,omitzero"`
}

func (st *Status) kind(k Kind) KindStatus {
	switch k {
	case KindClass:
		return st.Class
	case KindObjectProperty:
		return st.ObjectProperty
	case KindDataProperty:
		return st.DataProperty
	case KindAnnotationProperty:
		return st.AnnotationProperty
	case KindIndividual:
		return st.Individual
	}
	return KindStatus{}
}

func (st *Status) setKind(k Kind, ks KindStatus) {
	switch k {
	case KindClass:
		st.Class = ks
	case KindObjectProperty:
		st.ObjectProperty = ks
	case KindDataProperty:
		st.DataProperty = ks
	case KindAnnotationProperty:
		st.AnnotationProperty = ks
	case KindIndividual:
		st.Individual = ks
	}
}
