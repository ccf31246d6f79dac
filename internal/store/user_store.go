package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/shopmate/backend/internal/models"
)

var (
	// ErrNotFound is returned when no account matches the lookup.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned when the email unique constraint fires.
	ErrDuplicateEmail = errors.New("email already in use")
	// ErrDuplicatePhone is returned when the phone unique constraint fires.
	ErrDuplicatePhone = errors.New("phone already in use")
	// ErrVersionConflict is returned when a concurrent save won the row.
	ErrVersionConflict = errors.New("user row changed concurrently")
)

// UserStore is the credential store contract consumed by the account
// workflow engine.
type UserStore interface {
	FindByEmail(email string) (*models.User, error)
	FindByPhone(phone string) (*models.User, error)
	FindByID(id int) (*models.User, error)
	Create(user *models.User) error
	// Save writes the full row back with an optimistic version check.
	// A lost race surfaces as ErrVersionConflict rather than silently
	// overwriting the other writer.
	Save(user *models.User) error
}

const userColumns = `id, name, email, password, phone, avatar, is_verified,
	otp, otp_expiry, otp_purpose, pending_email, pending_phone, reset_jti,
	role, version, created_at, updated_at`

// PostgresUserStore implements UserStore on top of database/sql.
type PostgresUserStore struct {
	db *sql.DB
}

func NewPostgresUserStore(db *sql.DB) *PostgresUserStore {
	return &PostgresUserStore{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	var phone, avatar, otp, otpPurpose, pendingEmail, pendingPhone, resetJTI sql.NullString
	var otpExpiry sql.NullTime

	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &phone, &avatar,
		&u.IsVerified, &otp, &otpExpiry, &otpPurpose, &pendingEmail,
		&pendingPhone, &resetJTI, &u.Role, &u.Version, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning user row: %w", err)
	}

	if phone.Valid {
		u.Phone = &phone.String
	}
	if avatar.Valid {
		u.Avatar = &avatar.String
	}
	if otp.Valid {
		u.OTP = &otp.String
	}
	if otpExpiry.Valid {
		t := otpExpiry.Time
		u.OTPExpiry = &t
	}
	if otpPurpose.Valid {
		u.OTPPurpose = &otpPurpose.String
	}
	if pendingEmail.Valid {
		u.PendingEmail = &pendingEmail.String
	}
	if pendingPhone.Valid {
		u.PendingPhone = &pendingPhone.String
	}
	if resetJTI.Valid {
		u.ResetJTI = &resetJTI.String
	}

	return &u, nil
}

func (s *PostgresUserStore) FindByEmail(email string) (*models.User, error) {
	row := s.db.QueryRow(
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

func (s *PostgresUserStore) FindByPhone(phone string) (*models.User, error) {
	row := s.db.QueryRow(
		`SELECT `+userColumns+` FROM users WHERE phone = $1`, phone)
	return scanUser(row)
}

func (s *PostgresUserStore) FindByID(id int) (*models.User, error) {
	row := s.db.QueryRow(
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (s *PostgresUserStore) Create(user *models.User) error {
	err := s.db.QueryRow(
		`INSERT INTO users (name, email, password, phone, avatar, is_verified,
			otp, otp_expiry, otp_purpose, pending_email, pending_phone,
			reset_jti, role)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, version, created_at, updated_at`,
		user.Name, user.Email, user.Password, user.Phone, user.Avatar,
		user.IsVerified, user.OTP, user.OTPExpiry, user.OTPPurpose,
		user.PendingEmail, user.PendingPhone, user.ResetJTI, user.Role,
	).Scan(&user.ID, &user.Version, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return mapConstraintError(err, "creating user")
	}
	return nil
}

func (s *PostgresUserStore) Save(user *models.User) error {
	err := s.db.QueryRow(
		`UPDATE users SET name = $1, email = $2, password = $3, phone = $4,
			avatar = $5, is_verified = $6, otp = $7, otp_expiry = $8,
			otp_purpose = $9, pending_email = $10, pending_phone = $11,
			reset_jti = $12, role = $13, version = version + 1, updated_at = NOW()
		WHERE id = $14 AND version = $15
		RETURNING version, updated_at`,
		user.Name, user.Email, user.Password, user.Phone, user.Avatar,
		user.IsVerified, user.OTP, user.OTPExpiry, user.OTPPurpose,
		user.PendingEmail, user.PendingPhone, user.ResetJTI, user.Role,
		user.ID, user.Version,
	).Scan(&user.Version, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrVersionConflict
		}
		return mapConstraintError(err, "saving user")
	}
	return nil
}

// mapConstraintError turns a postgres unique violation into the matching
// store error so the workflow can answer with a Conflict.
func mapConstraintError(err error, op string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		if strings.Contains(pqErr.Constraint, "phone") {
			return ErrDuplicatePhone
		}
		return ErrDuplicateEmail
	}
	return fmt.Errorf("%s: %w", op, err)
}
