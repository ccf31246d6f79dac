package auth

import (
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopmate/backend/internal/models"
	"github.com/shopmate/backend/internal/store"
	"github.com/shopmate/backend/internal/token"
)

// memStore is an in-memory UserStore with the same conflict and version
// semantics as the postgres implementation.
type memStore struct {
	nextID int
	users  map[int]*models.User
}

func newMemStore() *memStore {
	return &memStore{nextID: 1, users: map[int]*models.User{}}
}

func copyUser(u *models.User) *models.User {
	c := *u
	return &c
}

func (m *memStore) FindByEmail(email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memStore) FindByPhone(phone string) (*models.User, error) {
	for _, u := range m.users {
		if u.Phone != nil && *u.Phone == phone {
			return copyUser(u), nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memStore) FindByID(id int) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return copyUser(u), nil
}

func (m *memStore) Create(user *models.User) error {
	for _, u := range m.users {
		if u.Email == user.Email {
			return store.ErrDuplicateEmail
		}
	}
	user.ID = m.nextID
	m.nextID++
	user.Version = 1
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	m.users[user.ID] = copyUser(user)
	return nil
}

func (m *memStore) Save(user *models.User) error {
	current, ok := m.users[user.ID]
	if !ok {
		return store.ErrNotFound
	}
	if current.Version != user.Version {
		return store.ErrVersionConflict
	}
	for id, u := range m.users {
		if id == user.ID {
			continue
		}
		if u.Email == user.Email {
			return store.ErrDuplicateEmail
		}
		if u.Phone != nil && user.Phone != nil && *u.Phone == *user.Phone {
			return store.ErrDuplicatePhone
		}
	}
	user.Version++
	user.UpdatedAt = time.Now()
	m.users[user.ID] = copyUser(user)
	return nil
}

// recordingMailer captures every dispatched notification.
type recordingMailer struct {
	sent []sentMail
}

type sentMail struct {
	kind  string
	to    string
	code  string
	value string
}

func (r *recordingMailer) SendRegistrationOTP(to, name, code string) error {
	r.sent = append(r.sent, sentMail{kind: "register", to: to, code: code})
	return nil
}

func (r *recordingMailer) SendPasswordResetOTP(to, name, code string) error {
	r.sent = append(r.sent, sentMail{kind: "reset", to: to, code: code})
	return nil
}

func (r *recordingMailer) SendProfileChangeOTP(to, name, changeType, newValue, code string) error {
	r.sent = append(r.sent, sentMail{kind: changeType, to: to, code: code, value: newValue})
	return nil
}

func (r *recordingMailer) last() sentMail {
	return r.sent[len(r.sent)-1]
}

func newTestEngine(t *testing.T) (*Engine, *memStore, *recordingMailer) {
	t.Helper()
	users := newMemStore()
	mailer := &recordingMailer{}
	tokens := token.NewManager("test-secret", time.Hour, 15*time.Minute)
	engine := NewEngine(users, mailer, tokens, nil)
	return engine, users, mailer
}

func TestRegister(t *testing.T) {
	t.Run("creates unverified account and dispatches code", func(t *testing.T) {
		engine, users, mailer := newTestEngine(t)

		email, err := engine.Register("Alice", "A@X.com", "secret1")
		require.NoError(t, err)
		assert.Equal(t, "a@x.com", email)

		u, err := users.FindByEmail("a@x.com")
		require.NoError(t, err)
		assert.False(t, u.IsVerified)
		assert.NotEqual(t, "secret1", u.Password)
		require.NotNil(t, u.OTPPurpose)
		assert.Equal(t, models.PurposeRegister, *u.OTPPurpose)
		require.NotNil(t, u.OTP)
		assert.Len(t, *u.OTP, 6)

		require.Len(t, mailer.sent, 1)
		assert.Equal(t, "register", mailer.last().kind)
		assert.Equal(t, *u.OTP, mailer.last().code)
	})

	t.Run("duplicate email conflicts, first account untouched", func(t *testing.T) {
		engine, users, _ := newTestEngine(t)

		_, err := engine.Register("Alice", "a@x.com", "secret1")
		require.NoError(t, err)

		_, err = engine.Register("Mallory", "a@x.com", "other")
		assert.ErrorIs(t, err, ErrEmailTaken)

		u, err := users.FindByEmail("a@x.com")
		require.NoError(t, err)
		assert.Equal(t, "Alice", u.Name)
		assert.False(t, u.IsVerified)
	})
}

func TestVerifyOTP(t *testing.T) {
	engine, _, mailer := newTestEngine(t)
	_, err := engine.Register("Alice", "a@x.com", "secret1")
	require.NoError(t, err)
	code := mailer.last().code

	t.Run("bad format rejected before lookup", func(t *testing.T) {
		_, err := engine.VerifyOTP("a@x.com", "12345", models.PurposeRegister)
		assert.ErrorIs(t, err, ErrInvalidOTPFormat)
		_, err = engine.VerifyOTP("a@x.com", "12e456", models.PurposeRegister)
		assert.ErrorIs(t, err, ErrInvalidOTPFormat)
	})

	t.Run("unknown account", func(t *testing.T) {
		_, err := engine.VerifyOTP("nobody@x.com", "123456", models.PurposeRegister)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("correct code, wrong purpose", func(t *testing.T) {
		_, err := engine.VerifyOTP("a@x.com", code, models.PurposeResetPassword)
		assert.ErrorIs(t, err, ErrInvalidOTP)
	})

	t.Run("wrong code", func(t *testing.T) {
		wrong := "111111"
		if wrong == code {
			wrong = "222222"
		}
		_, err := engine.VerifyOTP("a@x.com", wrong, models.PurposeRegister)
		assert.ErrorIs(t, err, ErrInvalidOTP)
	})

	t.Run("register success verifies account and issues session", func(t *testing.T) {
		result, err := engine.VerifyOTP("a@x.com", code, models.PurposeRegister)
		require.NoError(t, err)
		assert.NotEmpty(t, result.Token)
		assert.True(t, result.User.IsVerified)
		assert.Nil(t, result.User.OTP)
	})

	t.Run("expired code", func(t *testing.T) {
		engine2, _, mailer2 := newTestEngine(t)
		_, err := engine2.Register("Bob", "b@x.com", "secret1")
		require.NoError(t, err)
		code2 := mailer2.last().code

		engine2.now = func() time.Time { return time.Now().Add(otpTTLPlus()) }
		_, err = engine2.VerifyOTP("b@x.com", code2, models.PurposeRegister)
		assert.ErrorIs(t, err, ErrOTPExpired)
	})
}

func otpTTLPlus() time.Duration {
	return 5*time.Minute + time.Second
}

func TestResendOTP(t *testing.T) {
	t.Run("overwrites prior code", func(t *testing.T) {
		engine, _, mailer := newTestEngine(t)

		// deterministic codes so old and new are guaranteed to differ
		codes := []string{"111111", "222222"}
		engine.newCode = func() string {
			code := codes[0]
			codes = codes[1:]
			return code
		}

		_, err := engine.Register("Alice", "a@x.com", "secret1")
		require.NoError(t, err)
		oldCode := mailer.last().code

		purpose, err := engine.ResendOTP("a@x.com", models.PurposeRegister)
		require.NoError(t, err)
		assert.Equal(t, models.PurposeRegister, purpose)
		newCode := mailer.last().code
		require.NotEqual(t, oldCode, newCode)

		// the old code is dead after a resend
		_, err = engine.VerifyOTP("a@x.com", oldCode, models.PurposeRegister)
		assert.ErrorIs(t, err, ErrInvalidOTP)

		result, err := engine.VerifyOTP("a@x.com", newCode, models.PurposeRegister)
		require.NoError(t, err)
		assert.True(t, result.User.IsVerified)
	})

	t.Run("register resend conflicts once verified", func(t *testing.T) {
		engine, _, mailer := newTestEngine(t)
		_, err := engine.Register("Alice", "a@x.com", "secret1")
		require.NoError(t, err)
		_, err = engine.VerifyOTP("a@x.com", mailer.last().code, models.PurposeRegister)
		require.NoError(t, err)

		_, err = engine.ResendOTP("a@x.com", models.PurposeRegister)
		assert.ErrorIs(t, err, ErrAlreadyVerified)
	})

	t.Run("unknown purpose", func(t *testing.T) {
		engine, _, _ := newTestEngine(t)
		_, err := engine.ResendOTP("a@x.com", "CHANGE_EMAIL")
		assert.ErrorIs(t, err, ErrInvalidPurpose)
	})
}

func TestLogin(t *testing.T) {
	engine, _, mailer := newTestEngine(t)
	_, err := engine.Register("Alice", "a@x.com", "secret1")
	require.NoError(t, err)

	t.Run("unknown email is generic unauthorized", func(t *testing.T) {
		_, err := engine.Login("nobody@x.com", "secret1")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("wrong password on unverified account is still generic", func(t *testing.T) {
		_, err := engine.Login("a@x.com", "wrongpass")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("correct password before verification", func(t *testing.T) {
		_, err := engine.Login("a@x.com", "secret1")
		assert.ErrorIs(t, err, ErrAccountNotVerified)
	})

	t.Run("succeeds after verification", func(t *testing.T) {
		verified, err := engine.VerifyOTP("a@x.com", mailer.last().code, models.PurposeRegister)
		require.NoError(t, err)

		result, err := engine.Login("a@x.com", "secret1")
		require.NoError(t, err)
		assert.NotEmpty(t, result.Token)
		assert.Equal(t, verified.User.ID, result.User.ID)
	})
}

func TestForgotAndResetPassword(t *testing.T) {
	engine, _, mailer := newTestEngine(t)
	_, err := engine.Register("Alice", "a@x.com", "secret1")
	require.NoError(t, err)
	_, err = engine.VerifyOTP("a@x.com", mailer.last().code, models.PurposeRegister)
	require.NoError(t, err)

	t.Run("unknown email still succeeds, nothing dispatched", func(t *testing.T) {
		before := len(mailer.sent)
		err := engine.ForgotPassword("nobody@x.com")
		assert.NoError(t, err)
		assert.Len(t, mailer.sent, before)
	})

	t.Run("full reset flow", func(t *testing.T) {
		require.NoError(t, engine.ForgotPassword("a@x.com"))
		assert.Equal(t, "reset", mailer.last().kind)
		resetCode := mailer.last().code

		result, err := engine.VerifyOTP("a@x.com", resetCode, models.PurposeResetPassword)
		require.NoError(t, err)
		assert.NotEmpty(t, result.ResetToken)
		assert.Empty(t, result.Token)

		require.NoError(t, engine.ResetPassword(result.ResetToken, "newpass1"))

		_, err = engine.Login("a@x.com", "secret1")
		assert.ErrorIs(t, err, ErrInvalidCredentials)

		login, err := engine.Login("a@x.com", "newpass1")
		require.NoError(t, err)
		assert.NotEmpty(t, login.Token)
	})

	t.Run("reset credential works exactly once", func(t *testing.T) {
		require.NoError(t, engine.ForgotPassword("a@x.com"))
		result, err := engine.VerifyOTP("a@x.com", mailer.last().code, models.PurposeResetPassword)
		require.NoError(t, err)

		require.NoError(t, engine.ResetPassword(result.ResetToken, "oncepass1"))

		err = engine.ResetPassword(result.ResetToken, "twicepass1")
		assert.ErrorIs(t, err, ErrInvalidResetToken)

		// the replay must not have touched the password
		_, err = engine.Login("a@x.com", "twicepass1")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		_, err = engine.Login("a@x.com", "oncepass1")
		assert.NoError(t, err)
	})

	t.Run("new challenge supersedes an unconsumed reset credential", func(t *testing.T) {
		require.NoError(t, engine.ForgotPassword("a@x.com"))
		result, err := engine.VerifyOTP("a@x.com", mailer.last().code, models.PurposeResetPassword)
		require.NoError(t, err)

		require.NoError(t, engine.ForgotPassword("a@x.com"))

		err = engine.ResetPassword(result.ResetToken, "stalepass1")
		assert.ErrorIs(t, err, ErrInvalidResetToken)
	})

	t.Run("garbage reset token", func(t *testing.T) {
		err := engine.ResetPassword("not-a-token", "whatever1")
		assert.ErrorIs(t, err, ErrInvalidResetToken)
	})

	t.Run("session token cannot reset a password", func(t *testing.T) {
		login, err := engine.Login("a@x.com", "oncepass1")
		require.NoError(t, err)
		err = engine.ResetPassword(login.Token, "another1")
		assert.ErrorIs(t, err, ErrInvalidResetToken)
	})
}

func TestResetPasswordRedisConsumption(t *testing.T) {
	users := newMemStore()
	mailer := &recordingMailer{}
	tokens := token.NewManager("test-secret", time.Hour, 15*time.Minute)
	client, mock := redismock.NewClientMock()
	engine := NewEngine(users, mailer, tokens, client)

	_, err := engine.Register("Alice", "a@x.com", "secret1")
	require.NoError(t, err)
	_, err = engine.VerifyOTP("a@x.com", mailer.last().code, models.PurposeRegister)
	require.NoError(t, err)

	require.NoError(t, engine.ForgotPassword("a@x.com"))
	result, err := engine.VerifyOTP("a@x.com", mailer.last().code, models.PurposeResetPassword)
	require.NoError(t, err)

	_, jti, err := tokens.VerifyReset(result.ResetToken)
	require.NoError(t, err)
	key := "reset_jti:" + jti

	t.Run("first use marks the jti consumed", func(t *testing.T) {
		mock.ExpectSetNX(key, "1", 15*time.Minute).SetVal(true)
		require.NoError(t, engine.ResetPassword(result.ResetToken, "newpass1"))
	})

	t.Run("replay is rejected at the consumption check", func(t *testing.T) {
		mock.ExpectSetNX(key, "1", 15*time.Minute).SetVal(false)
		err := engine.ResetPassword(result.ResetToken, "another1")
		assert.ErrorIs(t, err, ErrInvalidResetToken)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChangePassword(t *testing.T) {
	engine, _, mailer := newTestEngine(t)
	_, err := engine.Register("Alice", "a@x.com", "secret1")
	require.NoError(t, err)
	result, err := engine.VerifyOTP("a@x.com", mailer.last().code, models.PurposeRegister)
	require.NoError(t, err)
	userID := result.User.ID

	t.Run("wrong current password", func(t *testing.T) {
		err := engine.ChangePassword(userID, "nope", "newpass1", "newpass1")
		assert.ErrorIs(t, err, ErrWrongPassword)
	})

	t.Run("confirmation mismatch", func(t *testing.T) {
		err := engine.ChangePassword(userID, "secret1", "newpass1", "newpass2")
		assert.ErrorIs(t, err, ErrPasswordMismatch)
	})

	t.Run("same as current", func(t *testing.T) {
		err := engine.ChangePassword(userID, "secret1", "secret1", "secret1")
		assert.ErrorIs(t, err, ErrSamePassword)
	})

	t.Run("success", func(t *testing.T) {
		require.NoError(t, engine.ChangePassword(userID, "secret1", "newpass1", "newpass1"))
		_, err := engine.Login("a@x.com", "newpass1")
		assert.NoError(t, err)
	})
}

func TestEmailChange(t *testing.T) {
	setup := func(t *testing.T) (*Engine, *memStore, *recordingMailer, int) {
		engine, users, mailer := newTestEngine(t)
		_, err := engine.Register("Alice", "a@x.com", "secret1")
		require.NoError(t, err)
		result, err := engine.VerifyOTP("a@x.com", mailer.last().code, models.PurposeRegister)
		require.NoError(t, err)
		return engine, users, mailer, result.User.ID
	}

	t.Run("request conflicts when another account owns the email", func(t *testing.T) {
		engine, users, mailer, userID := setup(t)
		_, err := engine.Register("Bob", "new@x.com", "secret2")
		require.NoError(t, err)

		before := len(mailer.sent)
		err = engine.RequestEmailChange(userID, "new@x.com")
		assert.ErrorIs(t, err, ErrEmailTaken)
		assert.Len(t, mailer.sent, before) // no OTP generated

		u, err := users.FindByID(userID)
		require.NoError(t, err)
		assert.Nil(t, u.PendingEmail)
	})

	t.Run("code is mailed to the new address", func(t *testing.T) {
		engine, _, mailer, userID := setup(t)
		require.NoError(t, engine.RequestEmailChange(userID, "new@x.com"))
		assert.Equal(t, "email", mailer.last().kind)
		assert.Equal(t, "new@x.com", mailer.last().to)
	})

	t.Run("confirm with mismatched new email fails, email unchanged", func(t *testing.T) {
		engine, users, mailer, userID := setup(t)
		require.NoError(t, engine.RequestEmailChange(userID, "new@x.com"))
		code := mailer.last().code

		_, err := engine.ConfirmEmailChange(userID, "other@x.com", code)
		assert.ErrorIs(t, err, ErrInvalidOTP)

		u, err := users.FindByID(userID)
		require.NoError(t, err)
		assert.Equal(t, "a@x.com", u.Email)
	})

	t.Run("confirm applies change and clears challenge", func(t *testing.T) {
		engine, users, mailer, userID := setup(t)
		require.NoError(t, engine.RequestEmailChange(userID, "new@x.com"))

		u, err := engine.ConfirmEmailChange(userID, "new@x.com", mailer.last().code)
		require.NoError(t, err)
		assert.Equal(t, "new@x.com", u.Email)
		assert.Nil(t, u.OTP)
		assert.Nil(t, u.PendingEmail)

		stored, err := users.FindByEmail("new@x.com")
		require.NoError(t, err)
		assert.Equal(t, userID, stored.ID)
	})
}

func TestPhoneChange(t *testing.T) {
	engine, users, mailer := newTestEngine(t)
	_, err := engine.Register("Alice", "a@x.com", "secret1")
	require.NoError(t, err)
	result, err := engine.VerifyOTP("a@x.com", mailer.last().code, models.PurposeRegister)
	require.NoError(t, err)
	userID := result.User.ID

	t.Run("code goes to the current email, not the phone", func(t *testing.T) {
		require.NoError(t, engine.RequestPhoneChange(userID, "0912345678"))
		assert.Equal(t, "phone", mailer.last().kind)
		assert.Equal(t, "a@x.com", mailer.last().to)
		assert.Equal(t, "0912345678", mailer.last().value)
	})

	t.Run("confirm applies the pending phone", func(t *testing.T) {
		u, err := engine.ConfirmPhoneChange(userID, "0912345678", mailer.last().code)
		require.NoError(t, err)
		require.NotNil(t, u.Phone)
		assert.Equal(t, "0912345678", *u.Phone)
		assert.Nil(t, u.PendingPhone)
	})

	t.Run("phone owned by another account conflicts", func(t *testing.T) {
		_, err := engine.Register("Bob", "b@x.com", "secret2")
		require.NoError(t, err)
		bob, err := users.FindByEmail("b@x.com")
		require.NoError(t, err)

		err = engine.RequestPhoneChange(bob.ID, "0912345678")
		assert.ErrorIs(t, err, ErrPhoneTaken)
	})
}

func TestChallengeOverwriteAcrossPurposes(t *testing.T) {
	// Only one challenge can be outstanding: a forgot-password request
	// silently replaces a pending email change.
	engine, _, mailer := newTestEngine(t)
	_, err := engine.Register("Alice", "a@x.com", "secret1")
	require.NoError(t, err)
	result, err := engine.VerifyOTP("a@x.com", mailer.last().code, models.PurposeRegister)
	require.NoError(t, err)
	userID := result.User.ID

	require.NoError(t, engine.RequestEmailChange(userID, "new@x.com"))
	emailCode := mailer.last().code

	require.NoError(t, engine.ForgotPassword("a@x.com"))

	_, err = engine.ConfirmEmailChange(userID, "new@x.com", emailCode)
	assert.ErrorIs(t, err, ErrInvalidOTP)
}

func TestUpdateProfile(t *testing.T) {
	engine, _, mailer := newTestEngine(t)
	_, err := engine.Register("Alice", "a@x.com", "secret1")
	require.NoError(t, err)
	result, err := engine.VerifyOTP("a@x.com", mailer.last().code, models.PurposeRegister)
	require.NoError(t, err)
	userID := result.User.ID

	name := "  Alice Nguyen  "
	avatar := "https://cdn.example.com/a.png"
	u, err := engine.UpdateProfile(userID, &name, &avatar)
	require.NoError(t, err)
	assert.Equal(t, "Alice Nguyen", u.Name)
	require.NotNil(t, u.Avatar)
	assert.Equal(t, avatar, *u.Avatar)

	// nil fields leave values untouched
	u, err = engine.UpdateProfile(userID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Alice Nguyen", u.Name)
}
