package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const accountColumns = `id, first_name, last_name, email, phone_number, password_hash, status,
        is_email_verified, email_verified_at, email_verification_secret_hash, email_verification_secret_expiry,
        otp_login_secret_hash, otp_login_secret_expiry, referral_code, invited_by, push_notification_id, created_at`

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed account repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new account.
func (r *PostgresRepository) Create(ctx context.Context, account Account) (Account, error) {
	accountID, err := uuid.Parse(account.ID)
	if err != nil {
		return Account{}, err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO accounts (id, first_name, last_name, email, phone_number, password_hash, status,
            is_email_verified, email_verification_secret_hash, email_verification_secret_expiry, referral_code, invited_by, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		accountID, account.FirstName, account.LastName, account.Email, account.PhoneNumber,
		account.PasswordHash, account.Status, account.IsEmailVerified,
		account.EmailVerificationSecretHash, account.EmailVerificationSecretExpiry,
		account.ReferralCode, account.InvitedBy, account.CreatedAt.UTC())
	if err != nil {
		return Account{}, mapCreateError(err)
	}
	return account, nil
}

// FindOne fetches the account matching every set filter predicate. A filter
// that matches more than one row (possible only for secret-hash predicates,
// which carry no unique index) reports ErrAmbiguousMatch instead of picking
// an arbitrary account.
func (r *PostgresRepository) FindOne(ctx context.Context, filter Filter) (Account, error) {
	where, args := buildWhere(filter)
	if where == "" {
		return Account{}, fmt.Errorf("filter must set at least one predicate")
	}
	rows, err := r.db.Query(ctx, fmt.Sprintf(`SELECT %s FROM accounts WHERE %s LIMIT 2`, accountColumns, where), args...)
	if err != nil {
		return Account{}, err
	}
	defer rows.Close()

	found := make([]Account, 0, 1)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return Account{}, err
		}
		found = append(found, account)
	}
	if err := rows.Err(); err != nil {
		return Account{}, err
	}
	switch len(found) {
	case 0:
		return Account{}, ErrNotFound
	case 1:
		return found[0], nil
	default:
		return Account{}, ErrAmbiguousMatch
	}
}

// UpdateByID applies the partial update and returns the new row.
func (r *PostgresRepository) UpdateByID(ctx context.Context, id string, update Update) (Account, error) {
	accountID, err := uuid.Parse(id)
	if err != nil {
		return Account{}, ErrNotFound
	}

	sets := make([]string, 0, 6)
	args := []any{accountID}
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if update.Status != nil {
		add("status", *update.Status)
	}
	if update.PushNotificationID != nil {
		add("push_notification_id", *update.PushNotificationID)
	}
	if update.EmailVerificationSecretHash != nil {
		add("email_verification_secret_hash", *update.EmailVerificationSecretHash)
	}
	if update.EmailVerificationSecretExpiry != nil {
		add("email_verification_secret_expiry", update.EmailVerificationSecretExpiry.UTC())
	}
	if update.OTPLoginSecretHash != nil {
		add("otp_login_secret_hash", *update.OTPLoginSecretHash)
	}
	if update.OTPLoginSecretExpiry != nil {
		add("otp_login_secret_expiry", update.OTPLoginSecretExpiry.UTC())
	}
	if len(sets) == 0 {
		return r.FindOne(ctx, Filter{ID: &id})
	}

	query := fmt.Sprintf(`UPDATE accounts SET %s WHERE id = $1 RETURNING %s`, strings.Join(sets, ", "), accountColumns)
	row := r.db.QueryRow(ctx, query, args...)
	return scanAccount(row)
}

// ConfirmEmail flips the account to verified with an id-scoped guarded
// update. The candidate is resolved first so a hash held by more than one
// account reports ErrAmbiguousMatch; the update re-checks hash and verified
// state, so a racing confirmation of the same code still has exactly one
// winner and the loser gets ErrNotFound.
func (r *PostgresRepository) ConfirmEmail(ctx context.Context, secretHash string, verifiedAt time.Time) (Account, error) {
	target, err := r.singleMatch(ctx,
		`SELECT id FROM accounts WHERE email_verification_secret_hash = $1 AND is_email_verified = FALSE LIMIT 2`,
		secretHash)
	if err != nil {
		return Account{}, err
	}
	row := r.db.QueryRow(ctx, fmt.Sprintf(`UPDATE accounts
        SET is_email_verified = TRUE,
            status = $1,
            email_verified_at = $2,
            email_verification_secret_hash = NULL,
            email_verification_secret_expiry = NULL
        WHERE id = $3 AND email_verification_secret_hash = $4 AND is_email_verified = FALSE
        RETURNING %s`, accountColumns),
		StatusConfirmed, verifiedAt.UTC(), target, secretHash)
	return scanAccount(row)
}

// ConsumeOTPSecret clears the matching, still-valid OTP hash with an
// id-scoped guarded update. Resolving the candidate first keeps a colliding
// hash from clearing more than one account's secret; the update keeps the
// compare-and-clear predicate so a replayed code loses the race with
// ErrNotFound. An expired hash is left in place for the next issuance to
// overwrite.
func (r *PostgresRepository) ConsumeOTPSecret(ctx context.Context, secretHash string, now time.Time) (Account, error) {
	target, err := r.singleMatch(ctx,
		`SELECT id FROM accounts WHERE otp_login_secret_hash = $1 LIMIT 2`,
		secretHash)
	if err != nil {
		return Account{}, err
	}
	row := r.db.QueryRow(ctx, fmt.Sprintf(`UPDATE accounts
        SET otp_login_secret_hash = NULL,
            otp_login_secret_expiry = NULL
        WHERE id = $1 AND otp_login_secret_hash = $2
          AND (otp_login_secret_expiry IS NULL OR otp_login_secret_expiry > $3)
        RETURNING %s`, accountColumns),
		target, secretHash, now.UTC())
	return scanAccount(row)
}

// singleMatch resolves a candidate query to exactly one account id. Zero rows
// is ErrNotFound; a second row is ErrAmbiguousMatch.
func (r *PostgresRepository) singleMatch(ctx context.Context, query string, args ...any) (uuid.UUID, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return uuid.Nil, err
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0, 1)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return uuid.Nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return uuid.Nil, err
	}
	switch len(ids) {
	case 0:
		return uuid.Nil, ErrNotFound
	case 1:
		return ids[0], nil
	default:
		return uuid.Nil, ErrAmbiguousMatch
	}
}

func buildWhere(filter Filter) (string, []any) {
	clauses := make([]string, 0, 4)
	args := make([]any, 0, 4)
	add := func(column string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if filter.ID != nil {
		add("id", *filter.ID)
	}
	if filter.Email != nil {
		add("email", *filter.Email)
	}
	if filter.PhoneNumber != nil {
		add("phone_number", *filter.PhoneNumber)
	}
	if filter.ReferralCode != nil {
		add("referral_code", *filter.ReferralCode)
	}
	if filter.EmailVerificationSecretHash != nil {
		add("email_verification_secret_hash", *filter.EmailVerificationSecretHash)
	}
	if filter.OTPLoginSecretHash != nil {
		add("otp_login_secret_hash", *filter.OTPLoginSecretHash)
	}
	if filter.IsEmailVerified != nil {
		add("is_email_verified", *filter.IsEmailVerified)
	}
	return strings.Join(clauses, " AND "), args
}

func scanAccount(row pgx.Row) (Account, error) {
	var (
		a         Account
		id        uuid.UUID
		invitedBy *uuid.UUID
		createdAt time.Time
	)
	err := row.Scan(&id, &a.FirstName, &a.LastName, &a.Email, &a.PhoneNumber, &a.PasswordHash, &a.Status,
		&a.IsEmailVerified, &a.EmailVerifiedAt, &a.EmailVerificationSecretHash, &a.EmailVerificationSecretExpiry,
		&a.OTPLoginSecretHash, &a.OTPLoginSecretExpiry, &a.ReferralCode, &invitedBy, &a.PushNotificationID, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, err
	}
	a.ID = id.String()
	if invitedBy != nil {
		s := invitedBy.String()
		a.InvitedBy = &s
	}
	a.CreatedAt = createdAt.UTC()
	return a, nil
}

func mapCreateError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		switch {
		case strings.Contains(pgErr.ConstraintName, "phone"):
			return &DuplicateKeyError{Field: "phone_number"}
		case strings.Contains(pgErr.ConstraintName, "referral"):
			return &DuplicateKeyError{Field: "referral_code"}
		default:
			return &DuplicateKeyError{Field: "email"}
		}
	}
	return err
}
