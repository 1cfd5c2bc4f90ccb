package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/zuripay/zuripay/internal/notification"
	"github.com/zuripay/zuripay/internal/security"
	"github.com/zuripay/zuripay/internal/user"
	"github.com/zuripay/zuripay/internal/verification"
)

const referralCodeLength = 6

// CredentialIssuer mints an opaque session credential for a verified login.
// Implementations must return a fresh credential on every call and must not
// need the account's password hash.
type CredentialIssuer interface {
	Issue(ctx context.Context, accountID, displayName string) (string, error)
}

// Service orchestrates registration, email verification and both login paths.
// All collaborators are injected so tests can substitute doubles.
type Service struct {
	repo       user.Repository
	hasher     *security.Hasher
	codes      security.Generator
	verifier   *verification.Service
	issuer     CredentialIssuer
	mailer     notification.Mailer
	sms        notification.SMSSender
	production bool
	logger     *slog.Logger
}

// NewService builds the authentication service.
func NewService(repo user.Repository, hasher *security.Hasher, verifier *verification.Service,
	issuer CredentialIssuer, mailer notification.Mailer, sms notification.SMSSender,
	production bool, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		hasher:     hasher,
		verifier:   verifier,
		issuer:     issuer,
		mailer:     mailer,
		sms:        sms,
		production: production,
		logger:     logger,
	}
}

// RegisterInput captures the fields required to open an account.
type RegisterInput struct {
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber string
	Password    string
	InviteCode  string
}

// RegisterResult carries the created account and, outside production, the
// plaintext verification code for direct inspection. In production the code
// travels only by email and the field is empty.
type RegisterResult struct {
	Account          user.Account
	VerificationCode string
}

// Register creates a PENDING account and issues its first email-verification
// secret. The pre-checks on email and phone are best effort; the directory's
// unique constraints are the authoritative guard, and a lost race surfaces as
// the same taken-field failure.
func (s *Service) Register(ctx context.Context, input RegisterInput) (RegisterResult, error) {
	phone := NormalizePhone(input.PhoneNumber)

	if _, err := s.repo.FindOne(ctx, user.Filter{Email: &input.Email}); err == nil {
		return RegisterResult{}, ErrEmailTaken
	} else if !errors.Is(err, user.ErrNotFound) {
		return RegisterResult{}, err
	}
	if _, err := s.repo.FindOne(ctx, user.Filter{PhoneNumber: &phone}); err == nil {
		return RegisterResult{}, ErrPhoneTaken
	} else if !errors.Is(err, user.ErrNotFound) {
		return RegisterResult{}, err
	}

	var invitedBy *string
	if input.InviteCode != "" {
		inviter, err := s.repo.FindOne(ctx, user.Filter{ReferralCode: &input.InviteCode})
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				return RegisterResult{}, ErrInvalidInviteCode
			}
			return RegisterResult{}, err
		}
		invitedBy = &inviter.ID
	}

	passwordHash, err := s.hasher.HashPassword(input.Password)
	if err != nil {
		return RegisterResult{}, err
	}

	account, err := s.createWithFreshReferralCode(ctx, user.Account{
		ID:           uuid.NewString(),
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Email:        input.Email,
		PhoneNumber:  phone,
		PasswordHash: passwordHash,
		Status:       user.StatusPending,
		InvitedBy:    invitedBy,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		var dup *user.DuplicateKeyError
		if errors.As(err, &dup) {
			if dup.Field == "phone_number" {
				return RegisterResult{}, ErrPhoneTaken
			}
			return RegisterResult{}, ErrEmailTaken
		}
		return RegisterResult{}, err
	}

	code, err := s.verifier.IssueEmailSecret(ctx, account.ID)
	if err != nil {
		return RegisterResult{}, err
	}

	return RegisterResult{Account: account, VerificationCode: s.deliverEmailCode(ctx, account, code)}, nil
}

// createWithFreshReferralCode retries creation when the generated referral
// code collides with an existing account. Email and phone duplicates are
// returned to the caller untouched.
func (s *Service) createWithFreshReferralCode(ctx context.Context, account user.Account) (user.Account, error) {
	for attempt := 0; attempt < 3; attempt++ {
		code, err := s.codes.AlphanumericCode(referralCodeLength, security.CharsetUpperNum)
		if err != nil {
			return user.Account{}, err
		}
		account.ReferralCode = code

		created, err := s.repo.Create(ctx, account)
		if err == nil {
			return created, nil
		}
		var dup *user.DuplicateKeyError
		if errors.As(err, &dup) && dup.Field == "referral_code" {
			continue
		}
		return user.Account{}, err
	}
	return user.Account{}, &user.DuplicateKeyError{Field: "referral_code"}
}

// VerifyEmail consumes an email-verification code and returns the now
// CONFIRMED account.
func (s *Service) VerifyEmail(ctx context.Context, code string) (user.Account, error) {
	return s.verifier.ConsumeEmailSecret(ctx, code)
}

// ResendVerification issues a fresh verification secret for a still-unverified
// account, replacing any earlier one. Unknown and already-verified emails get
// the same failure so the endpoint cannot be used to probe accounts.
func (s *Service) ResendVerification(ctx context.Context, email string) (string, error) {
	account, err := s.repo.FindOne(ctx, user.Filter{Email: &email})
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return "", ErrAccountNotFound
		}
		return "", err
	}
	if account.IsEmailVerified {
		return "", ErrAccountNotFound
	}

	code, err := s.verifier.IssueEmailSecret(ctx, account.ID)
	if err != nil {
		return "", err
	}
	return s.deliverEmailCode(ctx, account, code), nil
}

// Session is the outcome of a successful login.
type Session struct {
	Account    user.Account
	Credential string
}

// LoginWithPassword runs the email+password path. Unknown email and wrong
// password produce the same failure.
func (s *Service) LoginWithPassword(ctx context.Context, email, password, pushNotificationID string) (Session, error) {
	account, err := s.repo.FindOne(ctx, user.Filter{Email: &email})
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}
	if !s.hasher.VerifyPassword(password, account.PasswordHash) {
		return Session{}, ErrInvalidCredentials
	}
	if !account.IsEmailVerified {
		return Session{}, ErrEmailNotVerified
	}
	return s.openSession(ctx, account, pushNotificationID)
}

// RequestOTP runs the first half of the phone login path: it mints an OTP for
// the account tied to the phone number and hands it to the SMS channel. The
// returned plaintext is empty in production.
func (s *Service) RequestOTP(ctx context.Context, phoneNumber string) (string, error) {
	phone := NormalizePhone(phoneNumber)
	account, err := s.repo.FindOne(ctx, user.Filter{PhoneNumber: &phone})
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return "", ErrAccountNotFound
		}
		return "", err
	}

	code, err := s.verifier.IssueOTPSecret(ctx, account.ID)
	if err != nil {
		return "", err
	}

	if !s.production {
		return code, nil
	}
	meta := notification.OTPMetadata{FirstName: account.FirstName, LastName: account.LastName}
	if err := s.sms.SendOTP(ctx, account.PhoneNumber, meta, code); err != nil {
		// The secret stays outstanding; a retried request overwrites it.
		s.logger.Error("otp delivery failed", "account_id", account.ID, "error", err)
	}
	return "", nil
}

// VerifyOTP runs the second half of the phone login path: it consumes the OTP
// and mints a session credential. The secret is cleared before issuance, so a
// replay fails no matter what happens downstream.
func (s *Service) VerifyOTP(ctx context.Context, code, pushNotificationID string) (Session, error) {
	account, err := s.verifier.ConsumeOTPSecret(ctx, code)
	if err != nil {
		return Session{}, err
	}
	return s.openSession(ctx, account, pushNotificationID)
}

func (s *Service) openSession(ctx context.Context, account user.Account, pushNotificationID string) (Session, error) {
	if pushNotificationID != "" {
		updated, err := s.repo.UpdateByID(ctx, account.ID, user.Update{PushNotificationID: &pushNotificationID})
		if err != nil {
			return Session{}, err
		}
		account = updated
	}
	credential, err := s.issuer.Issue(ctx, account.ID, account.DisplayName())
	if err != nil {
		return Session{}, err
	}
	return Session{Account: account, Credential: credential}, nil
}

// deliverEmailCode hands the code to the mailer in production, or returns it
// for direct echo otherwise. Delivery failure is logged, never fatal: the
// account stays PENDING and a resend mints a replacement secret.
func (s *Service) deliverEmailCode(ctx context.Context, account user.Account, code string) string {
	if !s.production {
		return code
	}
	if err := s.mailer.SendVerificationEmail(ctx, account.DisplayName(), account.Email, code); err != nil {
		s.logger.Error("verification email delivery failed", "account_id", account.ID, "error", err)
	}
	return ""
}
