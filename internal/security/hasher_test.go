package security

import (
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashPasswordNeverStoresPlaintext(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	hash, err := h.HashPassword("Secret123!")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if string(hash) == "Secret123!" {
		t.Fatal("stored hash equals the plaintext password")
	}
	if !h.VerifyPassword("Secret123!", hash) {
		t.Fatal("correct password did not verify")
	}
	if h.VerifyPassword("Secret123?", hash) {
		t.Fatal("wrong password verified")
	}
}

func TestHashPasswordSaltVaries(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	first, err := h.HashPassword("Secret123!")
	if err != nil {
		t.Fatalf("first hash: %v", err)
	}
	second, err := h.HashPassword("Secret123!")
	if err != nil {
		t.Fatalf("second hash: %v", err)
	}
	if string(first) == string(second) {
		t.Fatal("expected different stored hashes for the same password")
	}
	if !h.VerifyPassword("Secret123!", first) || !h.VerifyPassword("Secret123!", second) {
		t.Fatal("both hashes should verify against the original password")
	}
}

func TestHashSecretDeterministic(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	first, err := h.HashSecret("042913")
	if err != nil {
		t.Fatalf("first digest: %v", err)
	}
	second, err := h.HashSecret("042913")
	if err != nil {
		t.Fatalf("second digest: %v", err)
	}
	if first != second {
		t.Fatal("secret digest must be deterministic for lookup-by-hash")
	}
	other, err := h.HashSecret("042914")
	if err != nil {
		t.Fatalf("other digest: %v", err)
	}
	if other == first {
		t.Fatal("different secrets produced the same digest")
	}
}

func TestEmptyPlaintextRejected(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	if _, err := h.HashPassword(""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := h.HashSecret(""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
