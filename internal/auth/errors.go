package auth

import "errors"

// Business-rule failures returned by the registration and login flows. Each is
// a stable, recoverable outcome a caller can match on; anything else escaping
// a flow is a transient persistence or delivery failure and may be retried.
var (
	// ErrEmailTaken indicates the email already belongs to an account.
	ErrEmailTaken = errors.New("email is taken")

	// ErrPhoneTaken indicates the normalized phone number already belongs to
	// an account.
	ErrPhoneTaken = errors.New("phone number is taken")

	// ErrInvalidInviteCode indicates the supplied invite code matches no
	// account's referral code.
	ErrInvalidInviteCode = errors.New("invalid invite code")

	// ErrInvalidCredentials covers both an unknown email and a wrong password
	// on the email login path. The two cases are deliberately not
	// distinguished so responses do not reveal which accounts exist.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrEmailNotVerified blocks password login until the email-verification
	// secret has been consumed.
	ErrEmailNotVerified = errors.New("email address is not verified")

	// ErrAccountNotFound indicates the phone number (or, for resend, email)
	// is not tied to an eligible account.
	ErrAccountNotFound = errors.New("account not found")
)
