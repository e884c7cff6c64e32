package policy

import (
	"bytes"
	"encoding/json"
	"testing"

	"ontoserve.org/internal/registry"
)

func TestSnapshotRoundTrip(t *testing.T) {
	p := newTestPolicy(t)
	p.Assign("u2") // in policy, zero roles

	snap := p.Snapshot()
	restored, err := FromSnapshot(snap)
	if err != nil {
		t.Fatalf("FromSnapshot: %v", err)
	}
	if !p.Equal(restored) {
		t.Fatalf("restored policy differs from original")
	}
	if !restored.InPolicy("u2") {
		t.Fatalf("zero-role entry lost in round trip")
	}
	if !restored.IsOperationAllowed("op2", "p1", "u1") {
		t.Fatalf("restored policy decides differently")
	}
}

func TestSnapshotCanonicalBytes(t *testing.T) {
	a := newTestPolicy(t)

	// same state, different construction order
	b := newTestPolicy(t)
	br := b.Snapshot()
	b, err := FromSnapshot(br)
	if err != nil {
		t.Fatalf("FromSnapshot: %v", err)
	}
	b.Assign("u0", "r1")
	b.Revoke("u0", "r1")
	a.Assign("u0")

	aj, err := json.Marshal(a.Snapshot())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	bj, err := json.Marshal(b.Snapshot())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !bytes.Equal(aj, bj) {
		t.Fatalf("structurally equal policies must marshal identically:\n%s\n%s", aj, bj)
	}
}

func TestSnapshotIsValueCopy(t *testing.T) {
	p := newTestPolicy(t)
	snap := p.Snapshot()

	p.Assign("u2", "r1")
	if err := p.Roles().AddOperation("r1", "op-new"); err != nil {
		t.Fatalf("AddOperation: %v", err)
	}

	for _, a := range snap.Assignments {
		if a.User == "u2" {
			t.Fatalf("snapshot changed after later mutations")
		}
	}
	for _, r := range snap.Roles {
		if r.ID == "r1" && r.Grants("op-new") {
			t.Fatalf("snapshot role changed after later mutations")
		}
	}
}

func TestFromSnapshotRejectsCorruptData(t *testing.T) {
	p := newTestPolicy(t)
	snap := p.Snapshot()
	snap.Users = append(snap.Users, registry.User{ID: "u1", Name: "dup", Email: "dup@example.com"})
	if _, err := FromSnapshot(snap); err == nil {
		t.Fatalf("duplicate user id must fail restoration")
	}
}
