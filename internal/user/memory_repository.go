package user

import (
	"context"
	"sync"
	"time"
)

type memoryRepository struct {
	mu       sync.Mutex
	accounts map[string]Account
}

// NewMemoryRepository builds an in-memory account store for testing and for
// running without a database in development.
func NewMemoryRepository() Repository {
	return &memoryRepository{accounts: make(map[string]Account)}
}

func (r *memoryRepository) Create(_ context.Context, account Account) (Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.accounts {
		switch {
		case existing.Email == account.Email:
			return Account{}, &DuplicateKeyError{Field: "email"}
		case existing.PhoneNumber == account.PhoneNumber:
			return Account{}, &DuplicateKeyError{Field: "phone_number"}
		case existing.ReferralCode == account.ReferralCode:
			return Account{}, &DuplicateKeyError{Field: "referral_code"}
		}
	}
	r.accounts[account.ID] = account
	return account, nil
}

func (r *memoryRepository) FindOne(_ context.Context, filter Filter) (Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var (
		found Account
		hits  int
	)
	for _, account := range r.accounts {
		if !matches(account, filter) {
			continue
		}
		hits++
		if hits > 1 {
			return Account{}, ErrAmbiguousMatch
		}
		found = account
	}
	if hits == 0 {
		return Account{}, ErrNotFound
	}
	return found, nil
}

func (r *memoryRepository) UpdateByID(_ context.Context, id string, update Update) (Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[id]
	if !ok {
		return Account{}, ErrNotFound
	}
	if update.Status != nil {
		account.Status = *update.Status
	}
	if update.PushNotificationID != nil {
		account.PushNotificationID = update.PushNotificationID
	}
	if update.EmailVerificationSecretHash != nil {
		account.EmailVerificationSecretHash = update.EmailVerificationSecretHash
	}
	if update.EmailVerificationSecretExpiry != nil {
		account.EmailVerificationSecretExpiry = update.EmailVerificationSecretExpiry
	}
	if update.OTPLoginSecretHash != nil {
		account.OTPLoginSecretHash = update.OTPLoginSecretHash
	}
	if update.OTPLoginSecretExpiry != nil {
		account.OTPLoginSecretExpiry = update.OTPLoginSecretExpiry
	}
	r.accounts[id] = account
	return account, nil
}

func (r *memoryRepository) ConfirmEmail(_ context.Context, secretHash string, verifiedAt time.Time) (Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var (
		target string
		hits   int
	)
	for id, account := range r.accounts {
		if account.IsEmailVerified || account.EmailVerificationSecretHash == nil ||
			*account.EmailVerificationSecretHash != secretHash {
			continue
		}
		hits++
		if hits > 1 {
			return Account{}, ErrAmbiguousMatch
		}
		target = id
	}
	if hits == 0 {
		return Account{}, ErrNotFound
	}
	account := r.accounts[target]
	account.IsEmailVerified = true
	account.Status = StatusConfirmed
	at := verifiedAt.UTC()
	account.EmailVerifiedAt = &at
	account.EmailVerificationSecretHash = nil
	account.EmailVerificationSecretExpiry = nil
	r.accounts[target] = account
	return account, nil
}

func (r *memoryRepository) ConsumeOTPSecret(_ context.Context, secretHash string, now time.Time) (Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Two accounts holding the same outstanding hash means colliding codes
	// were issued; refuse to guess which account is logging in.
	var (
		target string
		hits   int
	)
	for id, account := range r.accounts {
		if account.OTPLoginSecretHash == nil || *account.OTPLoginSecretHash != secretHash {
			continue
		}
		hits++
		if hits > 1 {
			return Account{}, ErrAmbiguousMatch
		}
		target = id
	}
	if hits == 0 {
		return Account{}, ErrNotFound
	}
	account := r.accounts[target]
	if account.OTPLoginSecretExpiry != nil && !account.OTPLoginSecretExpiry.After(now) {
		return Account{}, ErrNotFound
	}
	account.OTPLoginSecretHash = nil
	account.OTPLoginSecretExpiry = nil
	r.accounts[target] = account
	return account, nil
}

func matches(account Account, filter Filter) bool {
	if filter.ID != nil && account.ID != *filter.ID {
		return false
	}
	if filter.Email != nil && account.Email != *filter.Email {
		return false
	}
	if filter.PhoneNumber != nil && account.PhoneNumber != *filter.PhoneNumber {
		return false
	}
	if filter.ReferralCode != nil && account.ReferralCode != *filter.ReferralCode {
		return false
	}
	if filter.EmailVerificationSecretHash != nil {
		if account.EmailVerificationSecretHash == nil ||
			*account.EmailVerificationSecretHash != *filter.EmailVerificationSecretHash {
			return false
		}
	}
	if filter.OTPLoginSecretHash != nil {
		if account.OTPLoginSecretHash == nil || *account.OTPLoginSecretHash != *filter.OTPLoginSecretHash {
			return false
		}
	}
	if filter.IsEmailVerified != nil && account.IsEmailVerified != *filter.IsEmailVerified {
		return false
	}
	return true
}
