// Package credentials stores and verifies user passwords as salted, iterated
// PBKDF2-SHA-256 digests. It is independent of the entity registries; the
// only shared vocabulary is the user identifier.
package credentials

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// DefaultSaltLength is the salt size in bytes.
	DefaultSaltLength = 16
	// DefaultKeyLength is the derived-key size in bytes.
	DefaultKeyLength = 32
	// DefaultIterations is the PBKDF2 iteration count.
	DefaultIterations = 100_000
)

// Salt is random bytes mixed into hashing to defeat precomputation.
type Salt []byte

// Digest pairs a derived hash with the salt that produced it.
type Digest struct {
	Hash []byte
	Salt Salt
}

// Equal compares two digests without leaking anything through timing.
func (d Digest) Equal(o Digest) bool {
	// salt equality is not secret; the hash comparison is the sensitive one
	return bytes.Equal(d.Salt, o.Salt) &&
		subtle.ConstantTimeCompare(d.Hash, o.Hash) == 1
}

// SaltGenerator draws salts from the process CSPRNG.
type SaltGenerator struct {
	// ByteLength is the salt size; zero means DefaultSaltLength.
	ByteLength int
}

// Generate returns a fresh random salt.
func (g SaltGenerator) Generate() (Salt, error) {
	n := g.ByteLength
	if n <= 0 {
		n = DefaultSaltLength
	}
	salt := make([]byte, n)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	return salt, nil
}

// Hasher derives password digests. The zero value uses the default
// parameters; a Hasher must verify with the same parameters it hashed with.
type Hasher struct {
	KeyLength  int
	Iterations int
}

func (h Hasher) params() (keyLen, iterations int) {
	keyLen = h.KeyLength
	if keyLen <= 0 {
		keyLen = DefaultKeyLength
	}
	iterations = h.Iterations
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	return keyLen, iterations
}

// Hash derives a digest from the password and salt. It is deterministic:
// identical inputs and parameters produce identical digest bytes, which is
// what makes verification possible.
func (h Hasher) Hash(password string, salt Salt) Digest {
	keyLen, iterations := h.params()
	key := pbkdf2.Key([]byte(password), salt, iterations, keyLen, sha256.New)
	return Digest{Hash: key, Salt: bytes.Clone(salt)}
}

// Verify recomputes the digest from the candidate password and the stored
// salt and compares in constant time.
func (h Hasher) Verify(password string, digest Digest) bool {
	keyLen, iterations := h.params()
	key := pbkdf2.Key([]byte(password), digest.Salt, iterations, keyLen, sha256.New)
	return subtle.ConstantTimeCompare(key, digest.Hash) == 1
}
