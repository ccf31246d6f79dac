// Package mail delivers OTP codes over SMTP. When no SMTP credentials
// are configured the message is written to the log instead, so the flow
// stays usable in development.
package mail

import (
	"fmt"
	"log"

	"github.com/spf13/viper"
	gomail "gopkg.in/gomail.v2"
)

// Mailer is the notification contract consumed by the account workflow.
// Dispatch is fire-and-forget unless delivery is marked required.
type Mailer interface {
	SendRegistrationOTP(to, name, code string) error
	SendPasswordResetOTP(to, name, code string) error
	// SendProfileChangeOTP confirms an email or phone change. changeType is
	// "email" or "phone"; newValue is the value awaiting confirmation.
	SendProfileChangeOTP(to, name, changeType, newValue, code string) error
}

// Service sends mail through an SMTP relay.
type Service struct {
	dialer   *gomail.Dialer
	from     string
	fromName string
	required bool
}

// NewService builds a Service from viper configuration. With no SMTP
// username/password configured it runs in development mode and only logs.
func NewService() *Service {
	viper.SetDefault("smtp.host", "smtp.gmail.com")
	viper.SetDefault("smtp.port", 587)
	viper.SetDefault("smtp.from_name", "ShopMate")
	viper.SetDefault("mail.required", false)

	s := &Service{
		from:     viper.GetString("smtp.username"),
		fromName: viper.GetString("smtp.from_name"),
		required: viper.GetBool("mail.required"),
	}

	username := viper.GetString("smtp.username")
	pass := viper.GetString("smtp.password")
	if username != "" && pass != "" {
		s.dialer = gomail.NewDialer(
			viper.GetString("smtp.host"), viper.GetInt("smtp.port"), username, pass)
	} else {
		log.Println("[MAIL] SMTP not configured, running in development mode (log only)")
	}

	return s
}

func (s *Service) SendRegistrationOTP(to, name, code string) error {
	subject := "Verify your account - your OTP code"
	body := fmt.Sprintf(
		"Hello %s,\n\nYour OTP code is: %s\n\nThe code expires in 5 minutes.\n\nIf you did not request this code, please ignore this email.",
		name, code)
	return s.send(to, subject, body)
}

func (s *Service) SendPasswordResetOTP(to, name, code string) error {
	subject := "Reset your password - your OTP code"
	body := fmt.Sprintf(
		"Hello %s,\n\nYour password reset OTP code is: %s\n\nThe code expires in 5 minutes.\n\nIf you did not request a password reset, please ignore this email and your account stays safe.",
		name, code)
	return s.send(to, subject, body)
}

func (s *Service) SendProfileChangeOTP(to, name, changeType, newValue, code string) error {
	subject := fmt.Sprintf("Confirm your %s change - your OTP code", changeType)
	body := fmt.Sprintf(
		"Hello %s,\n\nWe received a request to change your %s to: %s\n\nYour OTP code is: %s\n\nThe code expires in 5 minutes.\n\nIf you did not request this change, please ignore this email.",
		name, changeType, newValue, code)
	return s.send(to, subject, body)
}

func (s *Service) send(to, subject, body string) error {
	if s.dialer == nil {
		log.Println("[MAIL] ========================================")
		log.Println("[MAIL] EMAIL SERVICE (DEVELOPMENT MODE)")
		log.Printf("[MAIL] To: %s", to)
		log.Printf("[MAIL] Subject: %s", subject)
		log.Printf("[MAIL] Content: %s", body)
		log.Println("[MAIL] ========================================")
		return nil
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.from, s.fromName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		log.Printf("[MAIL] Failed to send email to %s: %v", to, err)
		if s.required {
			return fmt.Errorf("sending email: %w", err)
		}
		return nil
	}

	log.Printf("[MAIL] Email sent to %s", to)
	return nil
}
