package services

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

type EmailService interface {
	SendWelcomeEmail(email, name string) error
	SendPasswordResetEmail(email, resetLink string, otp int) error
	SendPasswordChangedEmail(email string) error
	Send(from, to, subject, body string) error
}

type emailService struct {
	dialer *gomail.Dialer
	from   string
}

func NewEmailService(smtpHost string, smtpPort int, smtpUser, smtpPassword, fromEmail string) EmailService {
	dialer := gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPassword)
	return &emailService{
		dialer: dialer,
		from:   fromEmail,
	}
}

func (s *emailService) SendWelcomeEmail(email, name string) error {
	body := fmt.Sprintf(`
		<h2>Welcome, %s!</h2>
		<p>Thank you for registering with us. We're excited to have you on board.</p>
		<p>Your account has been successfully created.</p>
	`, name)
	return s.send(s.from, email, "Welcome!", body)
}

func (s *emailService) SendPasswordResetEmail(email, resetLink string, otp int) error {
	body := fmt.Sprintf(`
		<h3>Password reset requested</h3>
		<p>We received a request to reset the password for your account.</p>
		<p>Your verification code is: <strong>%06d</strong></p>
		<p>To reset your password, please visit this link: <a href="%s">%s</a></p>
		<p>The code expires in 15 minutes. If you did not request this change, you can ignore this email.</p>
	`, otp, resetLink, resetLink)
	return s.send(s.from, email, "Reset Password", body)
}

func (s *emailService) SendPasswordChangedEmail(email string) error {
	body := `
		<h3>Password changed</h3>
		<p>Your password has been changed successfully.</p>
		<p>If this wasn't you, please reset your password immediately.</p>
	`
	return s.send(s.from, email, "Password Changed Successfully", body)
}

// Send delivers an arbitrary message on behalf of from. Used by the
// authenticated mail route.
func (s *emailService) Send(from, to, subject, body string) error {
	if from == "" {
		from = s.from
	}
	return s.send(from, to, subject, body)
}

func (s *emailService) send(from, to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}
