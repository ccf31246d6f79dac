package services

import (
	"net/http"

	"github.com/shopmate/backend/internal/auth"
	"github.com/shopmate/backend/internal/models"
)

type ProfileService struct {
	engine    *auth.Engine
	validator *ValidationHelper
}

func NewProfileService(engine *auth.Engine) *ProfileService {
	return &ProfileService{
		engine:    engine,
		validator: NewValidationHelper(),
	}
}

// UpdateProfileRequest represents the profile update payload
// @Description Profile update request structure
type UpdateProfileRequest struct {
	Name   *string `json:"name,omitempty" validate:"omitempty,min=2,max=100" example:"Nguyen Van A"`
	Avatar *string `json:"avatar,omitempty" validate:"omitempty,url"`
}

// ChangePasswordRequest represents the password change payload
// @Description Password change request structure
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

// PhoneOTPRequest represents the phone change initiation payload
// @Description Phone change OTP request structure
type PhoneOTPRequest struct {
	Phone string `json:"phone" validate:"required,e164" example:"+84912345678"`
}

// ChangePhoneRequest represents the phone change confirmation payload
// @Description Phone change confirmation structure
type ChangePhoneRequest struct {
	Phone string `json:"phone" validate:"required,e164" example:"+84912345678"`
	OTP   string `json:"otp" validate:"required,len=6" example:"123456"`
}

// EmailOTPRequest represents the email change initiation payload
// @Description Email change OTP request structure
type EmailOTPRequest struct {
	Email string `json:"email" validate:"required,email" example:"new@example.com"`
}

// ChangeEmailRequest represents the email change confirmation payload
// @Description Email change confirmation structure
type ChangeEmailRequest struct {
	Email string `json:"email" validate:"required,email" example:"new@example.com"`
	OTP   string `json:"otp" validate:"required,len=6" example:"123456"`
}

// ProfileResponse represents a profile operation response
// @Description Profile response structure
type ProfileResponse struct {
	Success bool               `json:"success" example:"true"`
	Message string             `json:"message,omitempty"`
	User    *models.PublicUser `json:"user,omitempty"`
}

func currentUserID(r *http.Request) (int, bool) {
	userID, ok := r.Context().Value("userID").(int)
	return userID, ok
}

// GetProfile returns the authenticated user's profile
// @Summary Get profile
// @Description Return the authenticated account's profile
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} ProfileResponse "Profile"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Router /profile [get]
func (s *ProfileService) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	user, err := s.engine.GetProfile(userID)
	if err != nil {
		SendErrorResponse(w, authErrorMessage(err), statusForAuthError(err), nil)
		return
	}

	sanitized := user.Sanitize()
	sendJSON(w, http.StatusOK, ProfileResponse{Success: true, User: &sanitized})
}

// UpdateProfile updates name and/or avatar
// @Summary Update profile
// @Description Update the account's name and avatar; omitted fields are untouched
// @Tags profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpdateProfileRequest true "Profile update request"
// @Success 200 {object} ProfileResponse "Updated profile"
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Router /profile [put]
func (s *ProfileService) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req UpdateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		SendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)
		return
	}
	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	user, err := s.engine.UpdateProfile(userID, req.Name, req.Avatar)
	if err != nil {
		SendErrorResponse(w, authErrorMessage(err), statusForAuthError(err), nil)
		return
	}

	sanitized := user.Sanitize()
	sendJSON(w, http.StatusOK, ProfileResponse{
		Success: true,
		Message: "Profile updated successfully",
		User:    &sanitized,
	})
}

// ChangePassword replaces the password for the authenticated account
// @Summary Change password
// @Description Replace the password after checking the current one
// @Tags profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ChangePasswordRequest true "Password change request"
// @Success 200 {object} ProfileResponse "Password changed"
// @Failure 400 {object} ErrorResponse "Wrong current password, mismatch, or unchanged password"
// @Router /profile/password [put]
func (s *ProfileService) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req ChangePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		SendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)
		return
	}
	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	err := s.engine.ChangePassword(userID, req.CurrentPassword, req.NewPassword, req.ConfirmPassword)
	if err != nil {
		SendErrorResponse(w, authErrorMessage(err), statusForAuthError(err), nil)
		return
	}

	sendJSON(w, http.StatusOK, ProfileResponse{
		Success: true,
		Message: "Password changed successfully",
	})
}

// RequestPhoneOTP starts a phone change
// @Summary Request phone change OTP
// @Description Send a CHANGE_PHONE OTP to the account's current email
// @Tags profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body PhoneOTPRequest true "Phone OTP request"
// @Success 200 {object} ProfileResponse "OTP sent"
// @Failure 409 {object} ErrorResponse "Phone already in use"
// @Router /profile/phone/otp [post]
func (s *ProfileService) RequestPhoneOTP(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req PhoneOTPRequest
	if err := decodeJSON(w, r, &req); err != nil {
		SendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)
		return
	}
	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	if err := s.engine.RequestPhoneChange(userID, req.Phone); err != nil {
		SendErrorResponse(w, authErrorMessage(err), statusForAuthError(err), nil)
		return
	}

	sendJSON(w, http.StatusOK, ProfileResponse{
		Success: true,
		Message: "An OTP code has been sent to your email.",
	})
}

// ChangePhone confirms a phone change
// @Summary Change phone
// @Description Apply the pending phone once the OTP matches
// @Tags profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ChangePhoneRequest true "Phone change request"
// @Success 200 {object} ProfileResponse "Phone changed"
// @Failure 401 {object} ErrorResponse "Wrong or expired OTP"
// @Router /profile/phone [put]
func (s *ProfileService) ChangePhone(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req ChangePhoneRequest
	if err := decodeJSON(w, r, &req); err != nil {
		SendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)
		return
	}
	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	user, err := s.engine.ConfirmPhoneChange(userID, req.Phone, req.OTP)
	if err != nil {
		SendErrorResponse(w, authErrorMessage(err), statusForAuthError(err), nil)
		return
	}

	sanitized := user.Sanitize()
	sendJSON(w, http.StatusOK, ProfileResponse{
		Success: true,
		Message: "Phone number updated successfully",
		User:    &sanitized,
	})
}

// RequestEmailOTP starts an email change
// @Summary Request email change OTP
// @Description Send a CHANGE_EMAIL OTP to the new address to prove control of it
// @Tags profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body EmailOTPRequest true "Email OTP request"
// @Success 200 {object} ProfileResponse "OTP sent"
// @Failure 409 {object} ErrorResponse "Email already registered"
// @Router /profile/email/otp [post]
func (s *ProfileService) RequestEmailOTP(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req EmailOTPRequest
	if err := decodeJSON(w, r, &req); err != nil {
		SendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)
		return
	}
	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	if err := s.engine.RequestEmailChange(userID, req.Email); err != nil {
		SendErrorResponse(w, authErrorMessage(err), statusForAuthError(err), nil)
		return
	}

	sendJSON(w, http.StatusOK, ProfileResponse{
		Success: true,
		Message: "An OTP code has been sent to the new email address.",
	})
}

// ChangeEmail confirms an email change
// @Summary Change email
// @Description Apply the pending email once the OTP matches
// @Tags profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ChangeEmailRequest true "Email change request"
// @Success 200 {object} ProfileResponse "Email changed"
// @Failure 401 {object} ErrorResponse "Wrong or expired OTP"
// @Router /profile/email [put]
func (s *ProfileService) ChangeEmail(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req ChangeEmailRequest
	if err := decodeJSON(w, r, &req); err != nil {
		SendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)
		return
	}
	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	user, err := s.engine.ConfirmEmailChange(userID, req.Email, req.OTP)
	if err != nil {
		SendErrorResponse(w, authErrorMessage(err), statusForAuthError(err), nil)
		return
	}

	sanitized := user.Sanitize()
	sendJSON(w, http.StatusOK, ProfileResponse{
		Success: true,
		Message: "Email updated successfully",
		User:    &sanitized,
	})
}
