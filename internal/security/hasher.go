package security

import (
	"crypto/sha512"
	"encoding/hex"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidInput indicates an empty plaintext was supplied to a hashing routine.
var ErrInvalidInput = errors.New("plaintext must not be empty")

// Hasher provides one-way hashing for long-lived passwords and short-lived
// one-time secrets. Passwords use bcrypt (salted, tunable cost); one-time
// secrets use an unsalted SHA-512 digest so an account can be looked up by the
// hash of a submitted code.
type Hasher struct {
	cost int
}

// NewHasher builds a hasher with the given bcrypt cost. A cost of zero selects
// bcrypt.DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// HashPassword derives a salted bcrypt hash from the plaintext. Hashing the
// same password twice yields different stored values.
func (h *Hasher) HashPassword(plaintext string) ([]byte, error) {
	if plaintext == "" {
		return nil, ErrInvalidInput
	}
	return bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
}

// VerifyPassword reports whether the plaintext matches the stored hash. It
// never returns an error on mismatch; bcrypt performs the comparison in
// constant time.
func (h *Hasher) VerifyPassword(plaintext string, hash []byte) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(plaintext)) == nil
}

// HashSecret digests a one-time secret with SHA-512 and returns the hex form.
// The digest is deterministic: the same code always produces the same output,
// which is what makes lookup-by-hash possible. Only use this for single-use,
// high-entropy, short-lived codes.
func (h *Hasher) HashSecret(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrInvalidInput
	}
	sum := sha512.Sum512([]byte(plaintext))
	return hex.EncodeToString(sum[:]), nil
}
