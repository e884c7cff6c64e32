package credentials

import (
	"bytes"
	"errors"
	"fmt"
	"slices"
	"strings"

	"ontoserve.org/internal/registry"
)

var (
	ErrNotRegistered     = errors.New("credentials: user not registered")
	ErrAlreadyRegistered = errors.New("credentials: user already registered")
)

// Registry associates user identities with verifiable password digests, one
// digest per user. Like the entity registries it expects the caller to hold
// the aggregate lock.
type Registry struct {
	hasher  Hasher
	digests map[registry.UserID]Digest
}

// NewRegistry builds an empty credential registry verifying with the given
// hasher parameters.
func NewRegistry(hasher Hasher) *Registry {
	return &Registry{hasher: hasher, digests: make(map[registry.UserID]Digest)}
}

// Add registers a digest for a user that has none yet.
func (r *Registry) Add(user registry.UserID, digest Digest) error {
	if _, ok := r.digests[user]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, user)
	}
	r.digests[user] = digest
	return nil
}

// Remove deletes the user's digest.
func (r *Registry) Remove(user registry.UserID) error {
	if _, ok := r.digests[user]; !ok {
		return fmt.Errorf("%w: %s", ErrNotRegistered, user)
	}
	delete(r.digests, user)
	return nil
}

// ChangePassword replaces the user's digest.
func (r *Registry) ChangePassword(user registry.UserID, digest Digest) error {
	if _, ok := r.digests[user]; !ok {
		return fmt.Errorf("%w: %s", ErrNotRegistered, user)
	}
	r.digests[user] = digest
	return nil
}

// Valid reports whether the candidate password verifies against the user's
// stored digest. It fails when the user has no digest at all.
func (r *Registry) Valid(user registry.UserID, password string) (bool, error) {
	digest, ok := r.digests[user]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrNotRegistered, user)
	}
	return r.hasher.Verify(password, digest), nil
}

// Contains reports whether the user has a registered digest.
func (r *Registry) Contains(user registry.UserID) bool {
	_, ok := r.digests[user]
	return ok
}

// Credential is the serializable form of one user's digest. Byte fields
// marshal as base64 under encoding/json.
type Credential struct {
	UserID registry.UserID `json:"user_id"`
	Salt   []byte          `json:"salt"`
	Hash   []byte          `json:"hash"`
}

// Snapshot returns every credential in user-id order, so structurally equal
// registries produce byte-identical serialized output.
func (r *Registry) Snapshot() []Credential {
	out := make([]Credential, 0, len(r.digests))
	for user, d := range r.digests {
		out = append(out, Credential{
			UserID: user,
			Salt:   bytes.Clone(d.Salt),
			Hash:   bytes.Clone(d.Hash),
		})
	}
	slices.SortFunc(out, func(a, b Credential) int {
		return strings.Compare(string(a.UserID), string(b.UserID))
	})
	return out
}

// FromSnapshot rebuilds a registry from a credential list.
func FromSnapshot(hasher Hasher, creds []Credential) (*Registry, error) {
	r := NewRegistry(hasher)
	for _, c := range creds {
		if err := r.Add(c.UserID, Digest{Hash: bytes.Clone(c.Hash), Salt: bytes.Clone(c.Salt)}); err != nil {
			return nil, err
		}
	}
	return r, nil
}
