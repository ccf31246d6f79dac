package auth

import "errors"

var (
	// ErrEmailTaken is returned when the email already belongs to an account.
	ErrEmailTaken = errors.New("email already registered")
	// ErrPhoneTaken is returned when the phone already belongs to another account.
	ErrPhoneTaken = errors.New("phone number already in use")
	// ErrNotFound is returned when no account matches the lookup.
	ErrNotFound = errors.New("account not found")
	// ErrInvalidOTPFormat is returned for codes that are not 6 digits. This
	// is a format error, checked before the store is touched.
	ErrInvalidOTPFormat = errors.New("otp must be a 6-digit code")
	// ErrInvalidOTP is returned when the code, purpose, or pending value does
	// not match the outstanding challenge.
	ErrInvalidOTP = errors.New("incorrect otp code")
	// ErrOTPExpired is returned when the outstanding challenge has expired.
	ErrOTPExpired = errors.New("otp code has expired")
	// ErrInvalidPurpose is returned for purposes the operation does not support.
	ErrInvalidPurpose = errors.New("unsupported otp purpose")
	// ErrInvalidCredentials is returned for unknown email or wrong password.
	// The message is identical for both so accounts cannot be enumerated.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrAccountNotVerified is returned when the password is correct but the
	// account has not completed OTP verification.
	ErrAccountNotVerified = errors.New("account not verified")
	// ErrAlreadyVerified is returned when resending a REGISTER code to a
	// verified account.
	ErrAlreadyVerified = errors.New("account already verified")
	// ErrInvalidResetToken is returned for bad, expired, or already used
	// reset credentials.
	ErrInvalidResetToken = errors.New("invalid or expired reset token")
	// ErrWrongPassword is returned when the current password check fails.
	ErrWrongPassword = errors.New("current password is incorrect")
	// ErrPasswordMismatch is returned when newPassword and confirmPassword differ.
	ErrPasswordMismatch = errors.New("password confirmation does not match")
	// ErrSamePassword is returned when the new password equals the current one.
	ErrSamePassword = errors.New("new password must differ from current password")
	// ErrConcurrentUpdate is returned when a concurrent request changed the
	// account between our read and write.
	ErrConcurrentUpdate = errors.New("account was modified concurrently, please retry")
)
