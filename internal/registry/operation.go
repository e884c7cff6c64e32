package registry

import (
	"fmt"
	"slices"
	"strings"
)

// OperationType classifies what an operation does to the resources it touches.
type OperationType string

const (
	OperationRead    OperationType = "read"
	OperationWrite   OperationType = "write"
	OperationPolicy  OperationType = "policy"
	OperationExecute OperationType = "execute"
)

func (t OperationType) valid() bool {
	switch t {
	case OperationRead, OperationWrite, OperationPolicy, OperationExecute:
		return true
	}
	return false
}

// PrerequisiteModifier states whether the referenced resource feature must be
// present or absent for the prerequisite to hold.
type PrerequisiteModifier string

const (
	PrerequisitePresent PrerequisiteModifier = "present"
	PrerequisiteAbsent  PrerequisiteModifier = "absent"
)

// Prerequisite is an externally-evaluated condition attached to an operation.
// The policy core carries prerequisites as metadata; it never evaluates them.
type Prerequisite struct {
	Target   string               `json:"target"`
	Modifier PrerequisiteModifier `json:"modifier"`
}

// Operation is an immutable named capability unit.
type Operation struct {
	ID            OperationID    `json:"id"`
	Name          string         `json:"name"`
	Description   string         `json:"description,omitempty"`
	Type          OperationType  `json:"type"`
	Prerequisites []Prerequisite `json:"prerequisites,omitempty"`
}

// NewOperation validates and constructs an Operation. Prerequisites are
// deduplicated and kept in canonical (target, modifier) order.
func NewOperation(id OperationID, name, description string, typ OperationType, prerequisites ...Prerequisite) (Operation, error) {
	if strings.TrimSpace(string(id)) == "" {
		return Operation{}, fmt.Errorf("%w: operation id is required", ErrInvalidInput)
	}
	if !typ.valid() {
		return Operation{}, fmt.Errorf("%w: unsupported operation type %q", ErrInvalidInput, typ)
	}
	for _, p := range prerequisites {
		if p.Modifier != PrerequisitePresent && p.Modifier != PrerequisiteAbsent {
			return Operation{}, fmt.Errorf("%w: unsupported prerequisite modifier %q", ErrInvalidInput, p.Modifier)
		}
		if strings.TrimSpace(p.Target) == "" {
			return Operation{}, fmt.Errorf("%w: prerequisite target is required", ErrInvalidInput)
		}
	}
	return Operation{
		ID:            id,
		Name:          strings.TrimSpace(name),
		Description:   strings.TrimSpace(description),
		Type:          typ,
		Prerequisites: sortPrerequisites(prerequisites),
	}, nil
}

// Equal compares two operations structurally.
func (op Operation) Equal(o Operation) bool {
	return op.ID == o.ID &&
		op.Name == o.Name &&
		op.Description == o.Description &&
		op.Type == o.Type &&
		slices.Equal(op.Prerequisites, o.Prerequisites)
}

func sortPrerequisites(prereqs []Prerequisite) []Prerequisite {
	out := slices.Clone(prereqs)
	slices.SortFunc(out, comparePrerequisites)
	return slices.Compact(out)
}

func comparePrerequisites(a, b Prerequisite) int {
	if a.Target != b.Target {
		return strings.Compare(a.Target, b.Target)
	}
	return strings.Compare(string(a.Modifier), string(b.Modifier))
}
