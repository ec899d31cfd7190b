package services

import (
	"fmt"
	"html"

	"gopkg.in/gomail.v2"
)

type EmailService interface {
	SendThankYouEmail(email, fullName string) error
}

type emailService struct {
	dialer *gomail.Dialer
	from   string
}

// NewEmailService returns a no-op sender when smtpHost is empty.
func NewEmailService(smtpHost string, smtpPort int, smtpUser, smtpPassword, fromEmail string) EmailService {
	if smtpHost == "" {
		return noopEmailService{}
	}
	dialer := gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPassword)
	return &emailService{
		dialer: dialer,
		from:   fromEmail,
	}
}

func (s *emailService) SendThankYouEmail(email, fullName string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", email)
	m.SetHeader("Subject", "Спасибо за вашу подпись")

	name := html.EscapeString(fullName)
	if name == "" {
		name = "друг"
	}
	body := fmt.Sprintf(`
		<h2>Здравствуйте, %s!</h2>
		<p>Ваш голос подтверждён и учтён.</p>
		<p>Спасибо, что поддержали инициативу.</p>
	`, name)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send thank you email: %w", err)
	}

	return nil
}

type noopEmailService struct{}

func (noopEmailService) SendThankYouEmail(string, string) error { return nil }
