package verification

import (
	"context"
	"errors"
	"time"

	"github.com/zuripay/zuripay/internal/security"
	"github.com/zuripay/zuripay/internal/user"
)

var (
	// ErrInvalidToken covers both a wrong email-verification code and a code
	// for an already-verified account. The two cases are indistinguishable on
	// purpose so a caller cannot probe verification state.
	ErrInvalidToken = errors.New("invalid verification token")

	// ErrTokenExpired indicates the submitted code matched an outstanding
	// secret whose expiry has passed.
	ErrTokenExpired = errors.New("verification token expired")

	// ErrInvalidOTP indicates no outstanding, still-valid OTP matched the
	// submitted code. Wrong, replayed and expired codes all land here.
	ErrInvalidOTP = errors.New("invalid otp")
)

const (
	codeLength = 6

	// DefaultEmailSecretTTL matches the six-hour window given to a freshly
	// registered user to confirm their address.
	DefaultEmailSecretTTL = 6 * time.Hour

	// DefaultOTPSecretTTL bounds how long a login OTP stays consumable.
	DefaultOTPSecretTTL = 10 * time.Minute
)

// Service drives the two one-time-secret tracks on an account: the one-shot
// email-verification transition PENDING -> CONFIRMED, and the cyclical OTP
// login secret. Secrets are stored hashed; the plaintext is returned once to
// the caller for out-of-band delivery and never persisted.
type Service struct {
	repo     user.Repository
	hasher   *security.Hasher
	codes    security.Generator
	emailTTL time.Duration
	otpTTL   time.Duration
	now      func() time.Time
}

// NewService builds a verification service. Zero TTLs select the defaults.
func NewService(repo user.Repository, hasher *security.Hasher, emailTTL, otpTTL time.Duration) *Service {
	if emailTTL <= 0 {
		emailTTL = DefaultEmailSecretTTL
	}
	if otpTTL <= 0 {
		otpTTL = DefaultOTPSecretTTL
	}
	return &Service{
		repo:     repo,
		hasher:   hasher,
		emailTTL: emailTTL,
		otpTTL:   otpTTL,
		now:      time.Now,
	}
}

// IssueEmailSecret mints a numeric code, stores its hash and expiry on the
// account and returns the plaintext. Any prior outstanding secret is
// overwritten; only the latest code is valid.
func (s *Service) IssueEmailSecret(ctx context.Context, accountID string) (string, error) {
	code, err := s.codes.NumericCode(codeLength)
	if err != nil {
		return "", err
	}
	hash, err := s.hasher.HashSecret(code)
	if err != nil {
		return "", err
	}
	expiry := s.now().Add(s.emailTTL).UTC()
	_, err = s.repo.UpdateByID(ctx, accountID, user.Update{
		EmailVerificationSecretHash:   &hash,
		EmailVerificationSecretExpiry: &expiry,
	})
	if err != nil {
		return "", err
	}
	return code, nil
}

// ConsumeEmailSecret looks up the not-yet-verified account holding the hash
// of the submitted code and confirms it. The confirming write is guarded by
// the same hash, so concurrent submissions of one code produce exactly one
// CONFIRMED transition.
func (s *Service) ConsumeEmailSecret(ctx context.Context, code string) (user.Account, error) {
	hash, err := s.hasher.HashSecret(code)
	if err != nil {
		return user.Account{}, ErrInvalidToken
	}

	unverified := false
	account, err := s.repo.FindOne(ctx, user.Filter{
		IsEmailVerified:             &unverified,
		EmailVerificationSecretHash: &hash,
	})
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.Account{}, ErrInvalidToken
		}
		return user.Account{}, err
	}

	if account.EmailVerificationSecretExpiry == nil || !s.now().Before(*account.EmailVerificationSecretExpiry) {
		return user.Account{}, ErrTokenExpired
	}

	account, err = s.repo.ConfirmEmail(ctx, hash, s.now())
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			// Lost the race to a concurrent submission.
			return user.Account{}, ErrInvalidToken
		}
		return user.Account{}, err
	}
	return account, nil
}

// IssueOTPSecret mints a login OTP, stores its hash and expiry on the account
// and returns the plaintext. Re-requesting replaces the outstanding code.
func (s *Service) IssueOTPSecret(ctx context.Context, accountID string) (string, error) {
	code, err := s.codes.NumericCode(codeLength)
	if err != nil {
		return "", err
	}
	hash, err := s.hasher.HashSecret(code)
	if err != nil {
		return "", err
	}
	expiry := s.now().Add(s.otpTTL).UTC()
	_, err = s.repo.UpdateByID(ctx, accountID, user.Update{
		OTPLoginSecretHash:   &hash,
		OTPLoginSecretExpiry: &expiry,
	})
	if err != nil {
		return "", err
	}
	return code, nil
}

// ConsumeOTPSecret resolves the account holding the submitted code and clears
// the stored hash in the same write, making the code single use. The secret is
// gone before any credential is minted downstream.
func (s *Service) ConsumeOTPSecret(ctx context.Context, code string) (user.Account, error) {
	hash, err := s.hasher.HashSecret(code)
	if err != nil {
		return user.Account{}, ErrInvalidOTP
	}
	account, err := s.repo.ConsumeOTPSecret(ctx, hash, s.now())
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.Account{}, ErrInvalidOTP
		}
		return user.Account{}, err
	}
	return account, nil
}
