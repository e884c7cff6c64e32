package registry

import (
	"errors"
	"slices"
	"testing"
)

func TestNewOperationValidation(t *testing.T) {
	if _, err := NewOperation("", "read", "", OperationRead); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty id, got %v", err)
	}
	if _, err := NewOperation("op1", "read", "", OperationType("delete")); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for bad type, got %v", err)
	}
	if _, err := NewOperation("op1", "read", "", OperationRead, Prerequisite{Target: "", Modifier: PrerequisitePresent}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty target, got %v", err)
	}
}

func TestOperationPrerequisites(t *testing.T) {
	op, err := NewOperation("op1", "edit class", "", OperationWrite)
	if err != nil {
		t.Fatalf("NewOperation: %v", err)
	}
	reg, _ := NewOperationRegistry(op)

	present := Prerequisite{Target: "ontology:lock", Modifier: PrerequisiteAbsent}
	if err := reg.AddPrerequisite("op1", present); err != nil {
		t.Fatalf("AddPrerequisite: %v", err)
	}
	if err := reg.AddPrerequisite("op1", present); err != nil {
		t.Fatalf("duplicate prerequisite must be a no-op: %v", err)
	}
	got, _ := reg.Get("op1")
	if !slices.Equal(got.Prerequisites, []Prerequisite{present}) {
		t.Fatalf("unexpected prerequisites: %v", got.Prerequisites)
	}

	if err := reg.RemovePrerequisite("op1", present); err != nil {
		t.Fatalf("RemovePrerequisite: %v", err)
	}
	got, _ = reg.Get("op1")
	if len(got.Prerequisites) != 0 {
		t.Fatalf("prerequisite not removed: %v", got.Prerequisites)
	}

	if err := reg.AddPrerequisite("missing", present); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestOperationPrerequisiteCanonicalOrder(t *testing.T) {
	op, err := NewOperation("op1", "edit", "", OperationWrite,
		Prerequisite{Target: "b", Modifier: PrerequisitePresent},
		Prerequisite{Target: "a", Modifier: PrerequisiteAbsent},
		Prerequisite{Target: "a", Modifier: PrerequisiteAbsent},
	)
	if err != nil {
		t.Fatalf("NewOperation: %v", err)
	}
	want := []Prerequisite{
		{Target: "a", Modifier: PrerequisiteAbsent},
		{Target: "b", Modifier: PrerequisitePresent},
	}
	if !slices.Equal(op.Prerequisites, want) {
		t.Fatalf("prerequisites not canonical: %v", op.Prerequisites)
	}
}

func TestOperationRegistryUniqueness(t *testing.T) {
	op, _ := NewOperation("op1", "read ontology", "", OperationRead)
	reg, _ := NewOperationRegistry(op)
	other, _ := NewOperation("op1", "something else", "", OperationWrite)
	if err := reg.Add(other); !errors.Is(err, ErrIDInUse) {
		t.Fatalf("expected ErrIDInUse, got %v", err)
	}
	got, _ := reg.Get("op1")
	if got.Name != "read ontology" {
		t.Fatalf("registry changed by failed add: %+v", got)
	}
}
