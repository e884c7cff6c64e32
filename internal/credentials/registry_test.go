package credentials

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
)

// test hasher uses a low iteration count to keep the suite fast
var testHasher = Hasher{Iterations: 1000}

func mustDigest(t *testing.T, password string) Digest {
	t.Helper()
	salt, err := SaltGenerator{}.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return testHasher.Hash(password, salt)
}

func TestRegistryAddValidateRemove(t *testing.T) {
	r := NewRegistry(testHasher)

	if err := r.Add("u1", mustDigest(t, "secret")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := r.Add("u1", mustDigest(t, "other")); !errors.Is(err, ErrAlreadyRegistered) {
		t.Fatalf("expected ErrAlreadyRegistered, got %v", err)
	}

	ok, err := r.Valid("u1", "secret")
	if err != nil || !ok {
		t.Fatalf("Valid = (%v, %v), want (true, nil)", ok, err)
	}
	ok, err = r.Valid("u1", "wrong")
	if err != nil || ok {
		t.Fatalf("Valid = (%v, %v), want (false, nil)", ok, err)
	}
	if _, err := r.Valid("u2", "secret"); !errors.Is(err, ErrNotRegistered) {
		t.Fatalf("expected ErrNotRegistered, got %v", err)
	}

	if !r.Contains("u1") || r.Contains("u2") {
		t.Fatalf("Contains gave wrong answer")
	}

	if err := r.Remove("u1"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := r.Remove("u1"); !errors.Is(err, ErrNotRegistered) {
		t.Fatalf("expected ErrNotRegistered, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	r := NewRegistry(testHasher)
	if err := r.ChangePassword("u1", mustDigest(t, "x")); !errors.Is(err, ErrNotRegistered) {
		t.Fatalf("expected ErrNotRegistered, got %v", err)
	}
	if err := r.Add("u1", mustDigest(t, "old")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := r.ChangePassword("u1", mustDigest(t, "new")); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if ok, _ := r.Valid("u1", "old"); ok {
		t.Fatalf("old password still verifies")
	}
	if ok, _ := r.Valid("u1", "new"); !ok {
		t.Fatalf("new password does not verify")
	}
}

func TestSnapshotCanonicalAndRestorable(t *testing.T) {
	a := NewRegistry(testHasher)
	b := NewRegistry(testHasher)
	du1 := mustDigest(t, "one")
	du2 := mustDigest(t, "two")

	// opposite insertion orders
	_ = a.Add("u1", du1)
	_ = a.Add("u2", du2)
	_ = b.Add("u2", du2)
	_ = b.Add("u1", du1)

	aj, err := json.Marshal(a.Snapshot())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	bj, err := json.Marshal(b.Snapshot())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !bytes.Equal(aj, bj) {
		t.Fatalf("equal registries must serialize identically")
	}

	restored, err := FromSnapshot(testHasher, a.Snapshot())
	if err != nil {
		t.Fatalf("FromSnapshot: %v", err)
	}
	if ok, err := restored.Valid("u1", "one"); err != nil || !ok {
		t.Fatalf("restored registry does not verify: (%v, %v)", ok, err)
	}
	if ok, _ := restored.Valid("u2", "one"); ok {
		t.Fatalf("restored registry verifies the wrong password")
	}
}

func TestSnapshotIsValueCopy(t *testing.T) {
	r := NewRegistry(testHasher)
	_ = r.Add("u1", mustDigest(t, "pw"))
	snap := r.Snapshot()
	snap[0].Hash[0] ^= 0xff
	if ok, _ := r.Valid("u1", "pw"); !ok {
		t.Fatalf("mutating a snapshot must not affect the registry")
	}
}
