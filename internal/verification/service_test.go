package verification

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/zuripay/zuripay/internal/security"
	"github.com/zuripay/zuripay/internal/user"
)

func seedAccount(t *testing.T, repo user.Repository) user.Account {
	t.Helper()
	account, err := repo.Create(context.Background(), user.Account{
		ID:           "acct-1",
		FirstName:    "Ada",
		LastName:     "Obi",
		Email:        "ada@x.com",
		PhoneNumber:  "+2348011112222",
		PasswordHash: []byte("$2a$04$stub"),
		Status:       user.StatusPending,
		ReferralCode: "REF123",
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return account
}

func newTestService(repo user.Repository) *Service {
	return NewService(repo, security.NewHasher(bcrypt.MinCost), 0, 0)
}

func TestEmailSecretLifecycle(t *testing.T) {
	repo := user.NewMemoryRepository()
	svc := newTestService(repo)
	ctx := context.Background()
	account := seedAccount(t, repo)

	code, err := svc.IssueEmailSecret(ctx, account.ID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if len(code) != 6 {
		t.Fatalf("expected 6-digit code, got %q", code)
	}

	stored, err := repo.FindOne(ctx, user.Filter{ID: &account.ID})
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.EmailVerificationSecretHash == nil || *stored.EmailVerificationSecretHash == code {
		t.Fatal("plaintext code must not be persisted, only its hash")
	}
	if stored.EmailVerificationSecretExpiry == nil || !stored.EmailVerificationSecretExpiry.After(time.Now()) {
		t.Fatal("expiry must be set in the future at issuance")
	}

	confirmed, err := svc.ConsumeEmailSecret(ctx, code)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if !confirmed.IsEmailVerified || confirmed.Status != user.StatusConfirmed {
		t.Fatalf("expected CONFIRMED verified account, got %+v", confirmed)
	}
	if confirmed.EmailVerifiedAt == nil {
		t.Fatal("verification timestamp missing")
	}

	if _, err := svc.ConsumeEmailSecret(ctx, code); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("re-consuming the code should fail with ErrInvalidToken, got %v", err)
	}
}

func TestConsumeEmailSecretWrongCode(t *testing.T) {
	repo := user.NewMemoryRepository()
	svc := newTestService(repo)
	ctx := context.Background()
	account := seedAccount(t, repo)

	if _, err := svc.IssueEmailSecret(ctx, account.ID); err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := svc.ConsumeEmailSecret(ctx, "000000x"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestConsumeEmailSecretExpiry(t *testing.T) {
	repo := user.NewMemoryRepository()
	svc := newTestService(repo)
	ctx := context.Background()
	account := seedAccount(t, repo)

	issuedAt := time.Now().UTC()
	svc.now = func() time.Time { return issuedAt }

	code, err := svc.IssueEmailSecret(ctx, account.ID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	// Strictly after the expiry instant the code is dead.
	svc.now = func() time.Time { return issuedAt.Add(DefaultEmailSecretTTL + time.Second) }
	if _, err := svc.ConsumeEmailSecret(ctx, code); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}

	// Strictly before it the same code still works.
	svc.now = func() time.Time { return issuedAt.Add(DefaultEmailSecretTTL - time.Second) }
	if _, err := svc.ConsumeEmailSecret(ctx, code); err != nil {
		t.Fatalf("consume before expiry: %v", err)
	}
}

func TestIssueEmailSecretOverwritesPrior(t *testing.T) {
	repo := user.NewMemoryRepository()
	svc := newTestService(repo)
	ctx := context.Background()
	account := seedAccount(t, repo)

	first, err := svc.IssueEmailSecret(ctx, account.ID)
	if err != nil {
		t.Fatalf("first issue: %v", err)
	}
	second, err := svc.IssueEmailSecret(ctx, account.ID)
	if err != nil {
		t.Fatalf("second issue: %v", err)
	}
	if first == second {
		t.Skip("generator produced identical codes, cannot distinguish overwrite")
	}

	if _, err := svc.ConsumeEmailSecret(ctx, first); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("only the latest code should be valid, got %v", err)
	}
	if _, err := svc.ConsumeEmailSecret(ctx, second); err != nil {
		t.Fatalf("latest code should verify: %v", err)
	}
}

func TestOTPSecretSingleUse(t *testing.T) {
	repo := user.NewMemoryRepository()
	svc := newTestService(repo)
	ctx := context.Background()
	account := seedAccount(t, repo)

	code, err := svc.IssueOTPSecret(ctx, account.ID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := svc.ConsumeOTPSecret(ctx, "999999x"); !errors.Is(err, ErrInvalidOTP) {
		t.Fatalf("wrong code should fail with ErrInvalidOTP, got %v", err)
	}

	consumed, err := svc.ConsumeOTPSecret(ctx, code)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if consumed.OTPLoginSecretHash != nil {
		t.Fatal("otp hash must be cleared on consumption")
	}

	if _, err := svc.ConsumeOTPSecret(ctx, code); !errors.Is(err, ErrInvalidOTP) {
		t.Fatalf("replay should fail with ErrInvalidOTP, got %v", err)
	}
}

func TestOTPSecretExpires(t *testing.T) {
	repo := user.NewMemoryRepository()
	svc := newTestService(repo)
	ctx := context.Background()
	account := seedAccount(t, repo)

	issuedAt := time.Now().UTC()
	svc.now = func() time.Time { return issuedAt }

	code, err := svc.IssueOTPSecret(ctx, account.ID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	svc.now = func() time.Time { return issuedAt.Add(DefaultOTPSecretTTL + time.Second) }
	if _, err := svc.ConsumeOTPSecret(ctx, code); !errors.Is(err, ErrInvalidOTP) {
		t.Fatalf("expired otp should fail with ErrInvalidOTP, got %v", err)
	}
}

func TestConsumeOTPSecretCollidingCode(t *testing.T) {
	repo := user.NewMemoryRepository()
	svc := newTestService(repo)
	ctx := context.Background()

	first := seedAccount(t, repo)
	second, err := repo.Create(ctx, user.Account{
		ID:           "acct-2",
		FirstName:    "Bola",
		LastName:     "Eze",
		Email:        "bola@x.com",
		PhoneNumber:  "+2348033334444",
		PasswordHash: []byte("$2a$04$stub"),
		Status:       user.StatusPending,
		ReferralCode: "REF456",
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("seed second account: %v", err)
	}

	// Force both accounts onto the same plaintext code, as a collision of
	// independently generated codes would.
	hash, err := svc.hasher.HashSecret("123456")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	expiry := time.Now().Add(DefaultOTPSecretTTL).UTC()
	for _, id := range []string{first.ID, second.ID} {
		if _, err := repo.UpdateByID(ctx, id, user.Update{
			OTPLoginSecretHash:   &hash,
			OTPLoginSecretExpiry: &expiry,
		}); err != nil {
			t.Fatalf("plant code on %s: %v", id, err)
		}
	}

	// The collision must surface as a store-integrity failure, never as a
	// plain wrong-code miss and never as a login for either account.
	if _, err := svc.ConsumeOTPSecret(ctx, "123456"); !errors.Is(err, user.ErrAmbiguousMatch) {
		t.Fatalf("expected ErrAmbiguousMatch, got %v", err)
	}
	if _, err := svc.ConsumeOTPSecret(ctx, "123456"); !errors.Is(err, user.ErrAmbiguousMatch) {
		t.Fatalf("second attempt: expected ErrAmbiguousMatch, got %v", err)
	}
}
