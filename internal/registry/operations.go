package registry

import (
	"fmt"
	"slices"
	"strings"
)

// OperationRegistry owns the set of operations, keyed by id.
type OperationRegistry struct {
	operations map[OperationID]Operation
}

// NewOperationRegistry builds a registry seeded with the given operations.
func NewOperationRegistry(operations ...Operation) (*OperationRegistry, error) {
	r := &OperationRegistry{operations: make(map[OperationID]Operation, len(operations))}
	for _, op := range operations {
		if err := r.Add(op); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// All returns every operation in id order.
func (r *OperationRegistry) All() []Operation {
	out := make([]Operation, 0, len(r.operations))
	for _, op := range r.operations {
		out = append(out, op)
	}
	slices.SortFunc(out, func(a, b Operation) int { return strings.Compare(string(a.ID), string(b.ID)) })
	return out
}

// Get returns the operation with the given id.
func (r *OperationRegistry) Get(id OperationID) (Operation, error) {
	op, ok := r.operations[id]
	if !ok {
		return Operation{}, fmt.Errorf("%w: operation %s", ErrNotFound, id)
	}
	return op, nil
}

// Add registers a new operation under an unused id.
func (r *OperationRegistry) Add(op Operation) error {
	if _, ok := r.operations[op.ID]; ok {
		return fmt.Errorf("%w: operation %s", ErrIDInUse, op.ID)
	}
	r.operations[op.ID] = op
	return nil
}

// Remove deletes the operation with the given id.
func (r *OperationRegistry) Remove(id OperationID) error {
	if _, ok := r.operations[id]; !ok {
		return fmt.Errorf("%w: operation %s", ErrNotFound, id)
	}
	delete(r.operations, id)
	return nil
}

// Contains reports whether an operation with the given id is registered.
func (r *OperationRegistry) Contains(id OperationID) bool {
	_, ok := r.operations[id]
	return ok
}

func (r *OperationRegistry) update(id OperationID, change func(Operation) Operation) error {
	op, ok := r.operations[id]
	if !ok {
		return fmt.Errorf("%w: operation %s", ErrNotFound, id)
	}
	r.operations[id] = change(op)
	return nil
}

// ChangeName replaces the operation value with a copy carrying the new name.
func (r *OperationRegistry) ChangeName(id OperationID, name string) error {
	return r.update(id, func(op Operation) Operation {
		op.Name = strings.TrimSpace(name)
		return op
	})
}

// ChangeDescription replaces the operation's description.
func (r *OperationRegistry) ChangeDescription(id OperationID, description string) error {
	return r.update(id, func(op Operation) Operation {
		op.Description = strings.TrimSpace(description)
		return op
	})
}

// AddPrerequisite attaches an externally-evaluated condition to the operation.
func (r *OperationRegistry) AddPrerequisite(id OperationID, prereq Prerequisite) error {
	if strings.TrimSpace(prereq.Target) == "" {
		return fmt.Errorf("%w: prerequisite target is required", ErrInvalidInput)
	}
	if prereq.Modifier != PrerequisitePresent && prereq.Modifier != PrerequisiteAbsent {
		return fmt.Errorf("%w: unsupported prerequisite modifier %q", ErrInvalidInput, prereq.Modifier)
	}
	return r.update(id, func(op Operation) Operation {
		op.Prerequisites = sortPrerequisites(append(slices.Clone(op.Prerequisites), prereq))
		return op
	})
}

// RemovePrerequisite detaches a condition; absent conditions are a no-op.
func (r *OperationRegistry) RemovePrerequisite(id OperationID, prereq Prerequisite) error {
	return r.update(id, func(op Operation) Operation {
		op.Prerequisites = slices.DeleteFunc(slices.Clone(op.Prerequisites), func(p Prerequisite) bool {
			return p == prereq
		})
		if len(op.Prerequisites) == 0 {
			op.Prerequisites = nil
		}
		return op
	})
}

// Equal reports structural equality of the full entity sets.
func (r *OperationRegistry) Equal(o *OperationRegistry) bool {
	if len(r.operations) != len(o.operations) {
		return false
	}
	for id, op := range r.operations {
		if oop, ok := o.operations[id]; !ok || !oop.Equal(op) {
			return false
		}
	}
	return true
}
