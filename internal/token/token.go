// Package token issues and verifies the two JWT credentials used by the
// account workflow: long-lived session tokens and short-lived password
// reset tokens. Both are opaque to their callers.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/spf13/viper"
)

const scopePasswordReset = "password_reset"

var (
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Manager signs and verifies session and reset credentials.
type Manager struct {
	secret     []byte
	sessionTTL time.Duration
	resetTTL   time.Duration
}

// NewManager builds a Manager with explicit parameters. Used by tests.
func NewManager(secret string, sessionTTL, resetTTL time.Duration) *Manager {
	return &Manager{
		secret:     []byte(secret),
		sessionTTL: sessionTTL,
		resetTTL:   resetTTL,
	}
}

// NewManagerFromConfig builds a Manager from viper configuration.
func NewManagerFromConfig() *Manager {
	viper.SetDefault("jwt.expiry_hours", 168) // 7 days
	viper.SetDefault("jwt.reset_expiry_minutes", 15)

	return NewManager(
		viper.GetString("jwt.secret_key"),
		time.Duration(viper.GetInt("jwt.expiry_hours"))*time.Hour,
		time.Duration(viper.GetInt("jwt.reset_expiry_minutes"))*time.Minute,
	)
}

// IssueSession returns a session token for userID.
func (m *Manager) IssueSession(userID int) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(m.sessionTTL).Unix(),
		"iat":     time.Now().Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// IssueReset returns a reset token bound to userID together with its jti.
// The caller records the jti so the credential can be consumed exactly once.
func (m *Manager) IssueReset(userID int) (string, string, error) {
	jti := uuid.NewString()
	claims := jwt.MapClaims{
		"user_id": userID,
		"scope":   scopePasswordReset,
		"jti":     jti,
		"exp":     time.Now().Add(m.resetTTL).Unix(),
		"iat":     time.Now().Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	return signed, jti, err
}

func (m *Manager) parse(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// VerifySession returns the user id carried by a session token. Reset
// tokens are rejected here so they cannot be used as sessions.
func (m *Manager) VerifySession(tokenString string) (int, error) {
	claims, err := m.parse(tokenString)
	if err != nil {
		return 0, err
	}
	if scope, _ := claims["scope"].(string); scope != "" {
		return 0, ErrInvalidToken
	}

	userID, ok := claims["user_id"].(float64)
	if !ok {
		return 0, ErrInvalidToken
	}
	return int(userID), nil
}

// VerifyReset returns the user id and jti carried by a reset token.
// Plain session tokens are rejected.
func (m *Manager) VerifyReset(tokenString string) (int, string, error) {
	claims, err := m.parse(tokenString)
	if err != nil {
		return 0, "", err
	}
	if scope, _ := claims["scope"].(string); scope != scopePasswordReset {
		return 0, "", ErrInvalidToken
	}

	userID, ok := claims["user_id"].(float64)
	if !ok {
		return 0, "", ErrInvalidToken
	}
	jti, _ := claims["jti"].(string)
	if jti == "" {
		return 0, "", ErrInvalidToken
	}
	return int(userID), jti, nil
}
