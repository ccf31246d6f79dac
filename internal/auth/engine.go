// Package auth implements the OTP-gated account workflow: registration,
// verification, login, password reset, and email/phone/password changes.
// It holds no transport concerns; the HTTP layer maps its errors to
// status codes.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/shopmate/backend/internal/mail"
	"github.com/shopmate/backend/internal/models"
	"github.com/shopmate/backend/internal/otp"
	"github.com/shopmate/backend/internal/password"
	"github.com/shopmate/backend/internal/store"
	"github.com/shopmate/backend/internal/token"
)

// Engine orchestrates the account workflow against the credential store.
// The store is the only shared mutable state; each operation is a single
// read-modify-write guarded by the store's version check.
type Engine struct {
	users  store.UserStore
	mailer mail.Mailer
	tokens *token.Manager
	redis  *redis.Client // nil-safe; used for reset token single-use

	now     func() time.Time
	newCode func() string
}

func NewEngine(users store.UserStore, mailer mail.Mailer, tokens *token.Manager, redisClient *redis.Client) *Engine {
	return &Engine{
		users:   users,
		mailer:  mailer,
		tokens:  tokens,
		redis:   redisClient,
		now:     time.Now,
		newCode: otp.Generate,
	}
}

// VerifyResult carries the purpose-specific outcome of VerifyOTP.
type VerifyResult struct {
	Token      string
	ResetToken string
	User       *models.User
}

// LoginResult carries a session credential and the authenticated account.
type LoginResult struct {
	Token string
	User  *models.User
}

// Register creates an unverified account and dispatches a REGISTER OTP.
// Only the email comes back; no session exists until the OTP is confirmed.
func (e *Engine) Register(name, email, plaintext string) (string, error) {
	email = normalizeEmail(email)

	if _, err := e.users.FindByEmail(email); err == nil {
		return "", ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return "", fmt.Errorf("checking existing email: %w", err)
	}

	hash, err := password.Hash(plaintext)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}

	code := e.newCode()
	user := &models.User{
		Name:     strings.TrimSpace(name),
		Email:    email,
		Password: hash,
		Role:     models.RoleUser,
	}
	user.SetChallenge(code, otp.Expiry(e.now()), models.PurposeRegister)

	if err := e.users.Create(user); err != nil {
		return "", e.mapStoreError(err)
	}

	log.Printf("[AUTH] Registered unverified account %d for %s", user.ID, email)

	if err := e.mailer.SendRegistrationOTP(email, user.Name, code); err != nil {
		return "", err
	}
	return email, nil
}

// VerifyOTP confirms the outstanding challenge for REGISTER or
// RESET_PASSWORD. The code format is rejected before the store is read.
func (e *Engine) VerifyOTP(email, code, purpose string) (*VerifyResult, error) {
	if !otp.IsValidFormat(code) {
		return nil, ErrInvalidOTPFormat
	}
	if purpose != models.PurposeRegister && purpose != models.PurposeResetPassword {
		return nil, ErrInvalidPurpose
	}

	user, err := e.users.FindByEmail(normalizeEmail(email))
	if err != nil {
		return nil, e.mapStoreError(err)
	}

	if err := matchChallenge(user, code, purpose); err != nil {
		return nil, err
	}
	if otp.IsExpired(*user.OTPExpiry, e.now()) {
		return nil, ErrOTPExpired
	}

	switch purpose {
	case models.PurposeRegister:
		user.IsVerified = true
		user.ClearChallenge()
		if err := e.users.Save(user); err != nil {
			return nil, e.mapStoreError(err)
		}

		sessionToken, err := e.tokens.IssueSession(user.ID)
		if err != nil {
			return nil, fmt.Errorf("issuing session token: %w", err)
		}
		log.Printf("[AUTH] Account %d verified", user.ID)
		return &VerifyResult{Token: sessionToken, User: user}, nil

	default: // RESET_PASSWORD
		resetToken, jti, err := e.tokens.IssueReset(user.ID)
		if err != nil {
			return nil, fmt.Errorf("issuing reset token: %w", err)
		}

		user.ClearChallenge()
		user.ResetJTI = &jti
		if err := e.users.Save(user); err != nil {
			return nil, e.mapStoreError(err)
		}

		log.Printf("[AUTH] Reset credential issued for account %d", user.ID)
		return &VerifyResult{ResetToken: resetToken}, nil
	}
}

// ResendOTP regenerates the challenge, overwriting whatever was pending,
// and returns the purpose now outstanding so callers can detect that an
// older challenge was replaced.
func (e *Engine) ResendOTP(email, purpose string) (string, error) {
	if purpose != models.PurposeRegister && purpose != models.PurposeResetPassword {
		return "", ErrInvalidPurpose
	}

	user, err := e.users.FindByEmail(normalizeEmail(email))
	if err != nil {
		return "", e.mapStoreError(err)
	}

	if purpose == models.PurposeRegister && user.IsVerified {
		return "", ErrAlreadyVerified
	}

	code := e.newCode()
	user.SetChallenge(code, otp.Expiry(e.now()), purpose)
	if err := e.users.Save(user); err != nil {
		return "", e.mapStoreError(err)
	}

	log.Printf("[AUTH] Resent %s OTP for account %d", purpose, user.ID)

	if purpose == models.PurposeRegister {
		err = e.mailer.SendRegistrationOTP(user.Email, user.Name, code)
	} else {
		err = e.mailer.SendPasswordResetOTP(user.Email, user.Name, code)
	}
	if err != nil {
		return "", err
	}
	return purpose, nil
}

// Login authenticates an account. The password is checked before the
// verification flag: wrong credentials always get the same generic error,
// while a correct password on an unverified account gets
// ErrAccountNotVerified so the client can route to OTP entry.
func (e *Engine) Login(email, plaintext string) (*LoginResult, error) {
	user, err := e.users.FindByEmail(normalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("looking up account: %w", err)
	}

	if !password.Verify(plaintext, user.Password) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsVerified {
		return nil, ErrAccountNotVerified
	}

	sessionToken, err := e.tokens.IssueSession(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issuing session token: %w", err)
	}

	log.Printf("[AUTH] Login successful for account %d", user.ID)
	return &LoginResult{Token: sessionToken, User: user}, nil
}

// ForgotPassword dispatches a RESET_PASSWORD OTP when the account exists.
// It succeeds either way so callers cannot probe which emails are registered.
func (e *Engine) ForgotPassword(email string) error {
	user, err := e.users.FindByEmail(normalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Printf("[AUTH] Forgot-password request for unknown email")
			return nil
		}
		return fmt.Errorf("looking up account: %w", err)
	}

	code := e.newCode()
	user.SetChallenge(code, otp.Expiry(e.now()), models.PurposeResetPassword)
	if err := e.users.Save(user); err != nil {
		return e.mapStoreError(err)
	}

	log.Printf("[AUTH] Reset OTP issued for account %d", user.ID)
	return e.mailer.SendPasswordResetOTP(user.Email, user.Name, code)
}

// ResetPassword replaces the password for the account bound to a reset
// credential. The credential works exactly once: its jti must match the one
// recorded at issuance, which is cleared by the save below. Redis, when
// available, additionally rejects replays racing ahead of that save.
func (e *Engine) ResetPassword(resetToken, newPassword string) error {
	userID, jti, err := e.tokens.VerifyReset(resetToken)
	if err != nil {
		return ErrInvalidResetToken
	}

	if e.redis != nil {
		ok, err := e.redis.SetNX(context.Background(),
			"reset_jti:"+jti, "1", 15*time.Minute).Result()
		if err != nil {
			return fmt.Errorf("consuming reset token: %w", err)
		}
		if !ok {
			return ErrInvalidResetToken
		}
	}

	user, err := e.users.FindByID(userID)
	if err != nil {
		return ErrInvalidResetToken
	}
	if user.ResetJTI == nil || *user.ResetJTI != jti {
		return ErrInvalidResetToken
	}

	hash, err := password.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	user.Password = hash
	user.ClearChallenge()
	if err := e.users.Save(user); err != nil {
		return e.mapStoreError(err)
	}

	log.Printf("[AUTH] Password reset for account %d", user.ID)
	return nil
}

// ChangePassword replaces the password for an authenticated account.
func (e *Engine) ChangePassword(userID int, current, newPassword, confirm string) error {
	user, err := e.users.FindByID(userID)
	if err != nil {
		return e.mapStoreError(err)
	}

	if !password.Verify(current, user.Password) {
		return ErrWrongPassword
	}
	if newPassword != confirm {
		return ErrPasswordMismatch
	}
	if newPassword == current {
		return ErrSamePassword
	}

	hash, err := password.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	user.Password = hash
	if err := e.users.Save(user); err != nil {
		return e.mapStoreError(err)
	}

	log.Printf("[AUTH] Password changed for account %d", user.ID)
	return nil
}

// RequestEmailChange issues a CHANGE_EMAIL challenge. The code goes to the
// new address, since the point is to prove control of it.
func (e *Engine) RequestEmailChange(userID int, newEmail string) error {
	newEmail = normalizeEmail(newEmail)

	user, err := e.users.FindByID(userID)
	if err != nil {
		return e.mapStoreError(err)
	}

	if existing, err := e.users.FindByEmail(newEmail); err == nil {
		if existing.ID != user.ID {
			return ErrEmailTaken
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("checking existing email: %w", err)
	}

	code := e.newCode()
	user.SetChallenge(code, otp.Expiry(e.now()), models.PurposeChangeEmail)
	user.PendingEmail = &newEmail
	if err := e.users.Save(user); err != nil {
		return e.mapStoreError(err)
	}

	log.Printf("[AUTH] Email change requested for account %d", user.ID)
	return e.mailer.SendProfileChangeOTP(newEmail, user.Name, "email", newEmail, code)
}

// ConfirmEmailChange applies the pending email once purpose, pending value,
// and code all match the outstanding challenge.
func (e *Engine) ConfirmEmailChange(userID int, newEmail, code string) (*models.User, error) {
	newEmail = normalizeEmail(newEmail)

	user, err := e.users.FindByID(userID)
	if err != nil {
		return nil, e.mapStoreError(err)
	}

	if !otp.IsValidFormat(code) {
		return nil, ErrInvalidOTPFormat
	}
	if err := matchChallenge(user, code, models.PurposeChangeEmail); err != nil {
		return nil, err
	}
	if user.PendingEmail == nil || *user.PendingEmail != newEmail {
		return nil, ErrInvalidOTP
	}
	if otp.IsExpired(*user.OTPExpiry, e.now()) {
		return nil, ErrOTPExpired
	}

	user.Email = newEmail
	user.ClearChallenge()
	if err := e.users.Save(user); err != nil {
		return nil, e.mapStoreError(err)
	}

	log.Printf("[AUTH] Email changed for account %d", user.ID)
	return user, nil
}

// RequestPhoneChange issues a CHANGE_PHONE challenge. There is no SMS
// channel, so the code goes to the account's current email address.
func (e *Engine) RequestPhoneChange(userID int, newPhone string) error {
	user, err := e.users.FindByID(userID)
	if err != nil {
		return e.mapStoreError(err)
	}

	if existing, err := e.users.FindByPhone(newPhone); err == nil {
		if existing.ID != user.ID {
			return ErrPhoneTaken
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("checking existing phone: %w", err)
	}

	code := e.newCode()
	user.SetChallenge(code, otp.Expiry(e.now()), models.PurposeChangePhone)
	user.PendingPhone = &newPhone
	if err := e.users.Save(user); err != nil {
		return e.mapStoreError(err)
	}

	log.Printf("[AUTH] Phone change requested for account %d", user.ID)
	return e.mailer.SendProfileChangeOTP(user.Email, user.Name, "phone", newPhone, code)
}

// ConfirmPhoneChange applies the pending phone once purpose, pending value,
// and code all match the outstanding challenge.
func (e *Engine) ConfirmPhoneChange(userID int, newPhone, code string) (*models.User, error) {
	user, err := e.users.FindByID(userID)
	if err != nil {
		return nil, e.mapStoreError(err)
	}

	if !otp.IsValidFormat(code) {
		return nil, ErrInvalidOTPFormat
	}
	if err := matchChallenge(user, code, models.PurposeChangePhone); err != nil {
		return nil, err
	}
	if user.PendingPhone == nil || *user.PendingPhone != newPhone {
		return nil, ErrInvalidOTP
	}
	if otp.IsExpired(*user.OTPExpiry, e.now()) {
		return nil, ErrOTPExpired
	}

	user.Phone = &newPhone
	user.ClearChallenge()
	if err := e.users.Save(user); err != nil {
		return nil, e.mapStoreError(err)
	}

	log.Printf("[AUTH] Phone changed for account %d", user.ID)
	return user, nil
}

// GetProfile returns the account for an authenticated user id.
func (e *Engine) GetProfile(userID int) (*models.User, error) {
	user, err := e.users.FindByID(userID)
	if err != nil {
		return nil, e.mapStoreError(err)
	}
	return user, nil
}

// UpdateProfile changes name and/or avatar. Nil fields are left untouched.
func (e *Engine) UpdateProfile(userID int, name, avatar *string) (*models.User, error) {
	user, err := e.users.FindByID(userID)
	if err != nil {
		return nil, e.mapStoreError(err)
	}

	if name != nil && strings.TrimSpace(*name) != "" {
		trimmed := strings.TrimSpace(*name)
		user.Name = trimmed
	}
	if avatar != nil {
		user.Avatar = avatar
	}

	if err := e.users.Save(user); err != nil {
		return nil, e.mapStoreError(err)
	}
	return user, nil
}

// matchChallenge checks that an outstanding challenge exists and that both
// code and purpose match it. Expiry is checked separately so an expired but
// otherwise correct code reports ErrOTPExpired, not ErrInvalidOTP.
func matchChallenge(user *models.User, code, purpose string) error {
	if user.OTP == nil || user.OTPPurpose == nil || user.OTPExpiry == nil {
		return ErrInvalidOTP
	}
	if *user.OTPPurpose != purpose || *user.OTP != code {
		return ErrInvalidOTP
	}
	return nil
}

func (e *Engine) mapStoreError(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, store.ErrDuplicateEmail):
		return ErrEmailTaken
	case errors.Is(err, store.ErrDuplicatePhone):
		return ErrPhoneTaken
	case errors.Is(err, store.ErrVersionConflict):
		return ErrConcurrentUpdate
	default:
		return err
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
