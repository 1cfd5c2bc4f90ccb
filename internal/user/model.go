package user

import "time"

// Status tracks where an account sits in the onboarding lifecycle.
type Status string

const (
	// StatusPending marks a freshly registered account whose email has not
	// been verified yet.
	StatusPending Status = "PENDING"
	// StatusConfirmed marks an account that completed email verification.
	StatusConfirmed Status = "CONFIRMED"
)

// Account is the stored identity record. Secret fields hold only hashes; the
// plaintext codes they correspond to are never persisted.
type Account struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	PhoneNumber  string
	PasswordHash []byte
	Status       Status

	IsEmailVerified bool
	EmailVerifiedAt *time.Time

	// Outstanding email-verification secret. Both fields are nil once the
	// secret is consumed, or if none was ever issued.
	EmailVerificationSecretHash   *string
	EmailVerificationSecretExpiry *time.Time

	// Outstanding OTP login secret. Cleared on first successful consumption.
	OTPLoginSecretHash   *string
	OTPLoginSecretExpiry *time.Time

	ReferralCode       string
	InvitedBy          *string
	PushNotificationID *string

	CreatedAt time.Time
}

// DisplayName returns the name used when minting credentials and addressing
// outbound messages.
func (a Account) DisplayName() string {
	return a.FirstName + " " + a.LastName
}

// Filter selects accounts by a conjunction of field equality predicates.
// Nil fields are ignored.
type Filter struct {
	ID                          *string
	Email                       *string
	PhoneNumber                 *string
	ReferralCode                *string
	EmailVerificationSecretHash *string
	OTPLoginSecretHash          *string
	IsEmailVerified             *bool
}

// Update carries a partial mutation. Nil fields are left untouched. Clearing
// of secret fields happens only through the atomic consume operations on the
// repository, so a set pointer always means "write this value".
type Update struct {
	Status                        *Status
	PushNotificationID            *string
	EmailVerificationSecretHash   *string
	EmailVerificationSecretExpiry *time.Time
	OTPLoginSecretHash            *string
	OTPLoginSecretExpiry          *time.Time
}
