package models

import "time"

// OTP challenge purposes. At most one challenge is outstanding per user;
// requesting a new one overwrites whatever was there before.
const (
	PurposeRegister      = "REGISTER"
	PurposeResetPassword = "RESET_PASSWORD"
	PurposeChangeEmail   = "CHANGE_EMAIL"
	PurposeChangePhone   = "CHANGE_PHONE"
)

// User roles
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

type User struct {
	ID         int     `json:"id" example:"1"`
	Name       string  `json:"name" example:"Nguyen Van A"`
	Email      string  `json:"email" example:"user@example.com"`
	Password   string  `json:"-"` // argon2id, "salt$hash" base64
	Phone      *string `json:"phone,omitempty" example:"0912345678"`
	Avatar     *string `json:"avatar,omitempty"`
	IsVerified bool    `json:"isVerified" example:"false"`
	Role       string  `json:"role" example:"USER"`

	// Outstanding OTP challenge, all nil when no challenge is pending.
	OTP          *string    `json:"-"`
	OTPExpiry    *time.Time `json:"-"`
	OTPPurpose   *string    `json:"-"`
	PendingEmail *string    `json:"-"`
	PendingPhone *string    `json:"-"`

	// Outstanding reset credential; nil once consumed or superseded.
	ResetJTI *string `json:"-"`

	// Bumped by the store on every save; guards read-modify-write races.
	Version int `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PublicUser is the sanitized profile shape returned to clients.
type PublicUser struct {
	ID         int       `json:"id" example:"1"`
	Name       string    `json:"name" example:"Nguyen Van A"`
	Email      string    `json:"email" example:"user@example.com"`
	Phone      *string   `json:"phone" example:"0912345678"`
	Avatar     *string   `json:"avatar"`
	IsVerified bool      `json:"isVerified" example:"true"`
	Role       string    `json:"role" example:"USER"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Sanitize strips credentials and challenge state for responses.
func (u *User) Sanitize() PublicUser {
	return PublicUser{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Phone:      u.Phone,
		Avatar:     u.Avatar,
		IsVerified: u.IsVerified,
		Role:       u.Role,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

// SetChallenge replaces any outstanding OTP challenge. An outstanding
// reset credential is invalidated along with the challenge it came from.
func (u *User) SetChallenge(code string, expiry time.Time, purpose string) {
	u.OTP = &code
	u.OTPExpiry = &expiry
	u.OTPPurpose = &purpose
	u.PendingEmail = nil
	u.PendingPhone = nil
	u.ResetJTI = nil
}

// ClearChallenge drops the outstanding OTP challenge, any pending value,
// and any outstanding reset credential.
func (u *User) ClearChallenge() {
	u.OTP = nil
	u.OTPExpiry = nil
	u.OTPPurpose = nil
	u.PendingEmail = nil
	u.PendingPhone = nil
	u.ResetJTI = nil
}
