package security

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	digits = "0123456789"

	// CharsetUpperNum is the alphabet used for referral and invite codes.
	CharsetUpperNum = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Generator produces random human-enterable codes from crypto/rand.
// Uniqueness is not guaranteed here; the user directory's unique constraints
// are the authoritative guard where it matters.
type Generator struct{}

// NumericCode returns a fixed-length string of random digits. Leading zeros
// are preserved, so "042913" is a valid six-digit code.
func (Generator) NumericCode(length int) (string, error) {
	return randomFrom(digits, length)
}

// AlphanumericCode returns a fixed-length code drawn from the given charset.
func (Generator) AlphanumericCode(length int, charset string) (string, error) {
	if charset == "" {
		charset = CharsetUpperNum
	}
	return randomFrom(charset, length)
}

func randomFrom(charset string, length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("code length must be positive, got %d", length)
	}
	max := big.NewInt(int64(len(charset)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("read random source: %w", err)
		}
		out[i] = charset[n.Int64()]
	}
	return string(out), nil
}
