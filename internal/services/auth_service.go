package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/viper"

	"github.com/shopmate/backend/internal/auth"
	"github.com/shopmate/backend/internal/models"
)

type AuthService struct {
	engine    *auth.Engine
	redis     *redis.Client
	validator *ValidationHelper
}

func NewAuthService(engine *auth.Engine, redisClient *redis.Client) *AuthService {
	return &AuthService{
		engine:    engine,
		redis:     redisClient,
		validator: NewValidationHelper(),
	}
}

// RegisterRequest represents the registration request payload
// @Description Registration request structure
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100" example:"Nguyen Van A"`
	Email    string `json:"email" validate:"required,email" example:"user@example.com"`
	Password string `json:"password" validate:"required,min=6" example:"password123"`
}

// VerifyOTPRequest represents the OTP verification payload
// @Description OTP verification request structure
type VerifyOTPRequest struct {
	Email   string `json:"email" validate:"required,email" example:"user@example.com"`
	OTP     string `json:"otp" validate:"required,len=6" example:"123456"`
	Purpose string `json:"purpose" validate:"required,oneof=REGISTER RESET_PASSWORD" example:"REGISTER"`
}

// ResendOTPRequest represents the OTP resend payload
// @Description OTP resend request structure
type ResendOTPRequest struct {
	Email   string `json:"email" validate:"required,email" example:"user@example.com"`
	Purpose string `json:"purpose" validate:"required,oneof=REGISTER RESET_PASSWORD" example:"REGISTER"`
}

// LoginRequest represents the login request payload
// @Description Login request structure
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email" example:"user@example.com"`
	Password string `json:"password" validate:"required" example:"password123"`
}

// ForgetPasswordRequest represents the forgot-password payload
// @Description Forgot password request structure
type ForgetPasswordRequest struct {
	Email string `json:"email" validate:"required,email" example:"user@example.com"`
}

// ResetPasswordRequest represents the password reset payload
// @Description Password reset request structure
type ResetPasswordRequest struct {
	ResetToken  string `json:"resetToken" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6" example:"newpassword123"`
}

// AuthResponse represents a successful authentication response
// @Description Authentication response structure
type AuthResponse struct {
	Success    bool               `json:"success" example:"true"`
	Message    string             `json:"message" example:"Login successful"`
	Token      string             `json:"token,omitempty"`
	ResetToken string             `json:"resetToken,omitempty"`
	Email      string             `json:"email,omitempty" example:"user@example.com"`
	Purpose    string             `json:"purpose,omitempty" example:"REGISTER"`
	User       *models.PublicUser `json:"user,omitempty"`
}

// decodeJSON applies the shared request body rules: 1MB cap, unknown
// fields rejected, exactly one JSON object.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("request body must only contain a single JSON object")
	}
	return nil
}

func sendJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// Register handles user registration
// @Summary Register a new user
// @Description Create an unverified account and send a verification OTP to the email
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration request"
// @Success 201 {object} AuthResponse "Account created, OTP sent"
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Failure 409 {object} ErrorResponse "Email already registered"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /auth/register [post]
func (s *AuthService) Register(w http.ResponseWriter, r *http.Request) {
	log.Printf("[AUTH] Registration attempt from IP: %s", r.RemoteAddr)

	var req RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		SendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)
		return
	}
	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	email, err := s.engine.Register(req.Name, req.Email, req.Password)
	if err != nil {
		s.sendAuthError(w, err)
		return
	}

	sendJSON(w, http.StatusCreated, AuthResponse{
		Success: true,
		Message: "Registration successful. Please check your email for the OTP code.",
		Email:   email,
	})
}

// VerifyOTP handles OTP verification for registration and password reset
// @Summary Verify OTP
// @Description Confirm the outstanding OTP challenge for REGISTER or RESET_PASSWORD
// @Tags auth
// @Accept json
// @Produce json
// @Param request body VerifyOTPRequest true "OTP verification request"
// @Success 200 {object} AuthResponse "OTP verified"
// @Failure 400 {object} ErrorResponse "Malformed OTP"
// @Failure 401 {object} ErrorResponse "Wrong or expired OTP"
// @Failure 404 {object} ErrorResponse "Unknown account"
// @Router /auth/verify-otp [post]
func (s *AuthService) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req VerifyOTPRequest
	if err := decodeJSON(w, r, &req); err != nil {
		SendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)
		return
	}
	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	result, err := s.engine.VerifyOTP(req.Email, req.OTP, req.Purpose)
	if err != nil {
		s.sendAuthError(w, err)
		return
	}

	resp := AuthResponse{Success: true, Message: "OTP verified successfully"}
	if result.Token != "" {
		resp.Token = result.Token
		user := result.User.Sanitize()
		resp.User = &user
	}
	resp.ResetToken = result.ResetToken
	sendJSON(w, http.StatusOK, resp)
}

// ResendOTP handles OTP regeneration
// @Summary Resend OTP
// @Description Regenerate the OTP challenge, replacing any outstanding one
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ResendOTPRequest true "OTP resend request"
// @Success 200 {object} AuthResponse "OTP resent"
// @Failure 404 {object} ErrorResponse "Unknown account"
// @Failure 409 {object} ErrorResponse "Account already verified"
// @Router /auth/resend-otp [post]
func (s *AuthService) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req ResendOTPRequest
	if err := decodeJSON(w, r, &req); err != nil {
		SendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)
		return
	}
	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	purpose, err := s.engine.ResendOTP(req.Email, req.Purpose)
	if err != nil {
		s.sendAuthError(w, err)
		return
	}

	sendJSON(w, http.StatusOK, AuthResponse{
		Success: true,
		Message: "A new OTP code has been sent to your email.",
		Purpose: purpose,
	})
}

// Login handles user authentication
// @Summary Login user
// @Description Authenticate with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login request"
// @Success 200 {object} AuthResponse "Login successful"
// @Failure 401 {object} ErrorResponse "Invalid credentials"
// @Failure 403 {object} AuthResponse "Account not verified"
// @Router /auth/login [post]
func (s *AuthService) Login(w http.ResponseWriter, r *http.Request) {
	log.Printf("[AUTH] Login attempt from IP: %s", r.RemoteAddr)

	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		SendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)
		return
	}
	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	result, err := s.engine.Login(req.Email, req.Password)
	if errors.Is(err, auth.ErrAccountNotVerified) {
		// deliberately tells the client this account exists but still needs
		// OTP entry, and echoes the email so the client can prefill it
		sendJSON(w, http.StatusForbidden, AuthResponse{
			Success: false,
			Message: "Account not verified. Please verify your email first.",
			Email:   req.Email,
		})
		return
	}
	if err != nil {
		s.sendAuthError(w, err)
		return
	}

	user := result.User.Sanitize()
	sendJSON(w, http.StatusOK, AuthResponse{
		Success: true,
		Message: "Login successful",
		Token:   result.Token,
		User:    &user,
	})
}

// ForgetPassword handles password reset initiation
// @Summary Request password reset
// @Description Send a RESET_PASSWORD OTP when the account exists; the response never reveals whether it does
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ForgetPasswordRequest true "Forgot password request"
// @Success 200 {object} AuthResponse "Generic success"
// @Router /auth/forget-password [post]
func (s *AuthService) ForgetPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgetPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		SendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)
		return
	}
	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	if err := s.engine.ForgotPassword(req.Email); err != nil {
		s.sendAuthError(w, err)
		return
	}

	// same response whether or not the account exists
	sendJSON(w, http.StatusOK, AuthResponse{
		Success: true,
		Message: "If an account exists for this email, an OTP code has been sent.",
	})
}

// ResetPassword handles the final password reset step
// @Summary Reset password
// @Description Replace the password using a reset credential from OTP verification
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ResetPasswordRequest true "Password reset request"
// @Success 200 {object} AuthResponse "Password replaced"
// @Failure 401 {object} ErrorResponse "Invalid, expired, or already used reset token"
// @Router /auth/reset-password [post]
func (s *AuthService) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		SendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)
		return
	}
	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	if err := s.engine.ResetPassword(req.ResetToken, req.NewPassword); err != nil {
		s.sendAuthError(w, err)
		return
	}

	sendJSON(w, http.StatusOK, AuthResponse{
		Success: true,
		Message: "Password has been reset successfully.",
	})
}

// Logout handles user logout
// @Summary Logout user
// @Description Blacklist the presented session token until it expires
// @Tags auth
// @Produce json
// @Success 200 {object} AuthResponse "Logout successful"
// @Router /auth/logout [post]
func (s *AuthService) Logout(w http.ResponseWriter, r *http.Request) {
	tokenString := r.Header.Get("Authorization")
	if len(tokenString) > 7 {
		tokenString = tokenString[7:] // strip "Bearer "

		if s.redis != nil {
			ctx := context.Background()
			key := fmt.Sprintf("blacklist:%s", tokenString)
			expiry := time.Duration(viper.GetInt("jwt.expiry_hours")) * time.Hour
			if err := s.redis.Set(ctx, key, "1", expiry).Err(); err != nil {
				log.Printf("[AUTH] Failed to blacklist token: %v", err)
			}
		}
	}

	sendJSON(w, http.StatusOK, AuthResponse{Success: true, Message: "Logout successful"})
}

// Me returns the authenticated account
// @Summary Get current user
// @Description Return the account bound to the session token
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} AuthResponse "Current user"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Router /auth/me [get]
func (s *AuthService) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(int)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	user, err := s.engine.GetProfile(userID)
	if err != nil {
		s.sendAuthError(w, err)
		return
	}

	sanitized := user.Sanitize()
	sendJSON(w, http.StatusOK, AuthResponse{Success: true, User: &sanitized})
}

// sendAuthError maps workflow errors onto HTTP status codes. Anything not
// in the taxonomy is an internal error and keeps its details out of the
// response body.
func (s *AuthService) sendAuthError(w http.ResponseWriter, err error) {
	SendErrorResponse(w, authErrorMessage(err), statusForAuthError(err), nil)
}

func statusForAuthError(err error) int {
	switch {
	case errors.Is(err, auth.ErrEmailTaken),
		errors.Is(err, auth.ErrPhoneTaken),
		errors.Is(err, auth.ErrAlreadyVerified),
		errors.Is(err, auth.ErrConcurrentUpdate):
		return http.StatusConflict
	case errors.Is(err, auth.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, auth.ErrInvalidOTPFormat),
		errors.Is(err, auth.ErrInvalidPurpose),
		errors.Is(err, auth.ErrWrongPassword),
		errors.Is(err, auth.ErrPasswordMismatch),
		errors.Is(err, auth.ErrSamePassword):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidOTP),
		errors.Is(err, auth.ErrOTPExpired),
		errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidResetToken):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrAccountNotVerified):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func authErrorMessage(err error) string {
	if statusForAuthError(err) == http.StatusInternalServerError {
		log.Printf("[AUTH] Internal error: %v", err)
		return "An Internal Error Occurred"
	}
	return err.Error()
}
