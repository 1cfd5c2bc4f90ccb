package user

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound indicates no account matched the lookup or update target.
var ErrNotFound = errors.New("account not found")

// ErrAmbiguousMatch indicates more than one account matched a lookup that
// must resolve to a single account, such as a secret-hash predicate. The
// store never allows this for unique-constrained fields; seeing it for a
// secret hash means colliding codes are outstanding and the lookup cannot be
// trusted, so it is surfaced instead of picking an arbitrary account.
var ErrAmbiguousMatch = errors.New("multiple accounts matched a single-account lookup")

// DuplicateKeyError reports a uniqueness violation on create. Field names the
// colliding attribute ("email", "phone_number" or "referral_code").
type DuplicateKeyError struct {
	Field string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate %s", e.Field)
}

// Repository persists accounts. Email, phone number and referral code are
// each unique across all accounts; the backing store enforces this even when
// concurrent requests slip past application-level pre-checks.
type Repository interface {
	// Create inserts a new account. Returns *DuplicateKeyError when a unique
	// field collides with an existing account.
	Create(ctx context.Context, account Account) (Account, error)

	// FindOne returns the single account matching every set predicate, or
	// ErrNotFound.
	FindOne(ctx context.Context, filter Filter) (Account, error)

	// UpdateByID applies a partial update and returns the updated account.
	// Returns ErrNotFound if the id does not exist.
	UpdateByID(ctx context.Context, id string, update Update) (Account, error)

	// ConfirmEmail atomically marks the account holding the given outstanding
	// verification-secret hash as verified: status becomes CONFIRMED, the
	// verification timestamp is recorded and both secret fields are cleared.
	// The hash plus the not-yet-verified predicate guard the write, so two
	// racing submissions of the same code yield exactly one success; the
	// loser gets ErrNotFound.
	ConfirmEmail(ctx context.Context, secretHash string, verifiedAt time.Time) (Account, error)

	// ConsumeOTPSecret atomically clears the OTP secret matching the given
	// hash and returns the owning account. The compare-and-clear guarantees
	// a code is consumed at most once; a replay, or a hash whose expiry has
	// passed at the supplied instant, gets ErrNotFound.
	ConsumeOTPSecret(ctx context.Context, secretHash string, now time.Time) (Account, error)
}
