package services

import (
	"fmt"
	"log"

	"gopkg.in/gomail.v2"
)

type EmailService interface {
	SendWelcomeEmail(email, username string) error
}

type emailService struct {
	dialer *gomail.Dialer
	from   string
	dryRun bool
}

func NewEmailService(smtpHost string, smtpPort int, smtpUser, smtpPassword, fromEmail string, dryRun bool) EmailService {
	return &emailService{
		dialer: gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPassword),
		from:   fromEmail,
		dryRun: dryRun,
	}
}

func (s *emailService) SendWelcomeEmail(email, username string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", email)
	m.SetHeader("Subject", "Welcome to GigMarket!")

	body := fmt.Sprintf(`
		<h2>Welcome, %s!</h2>
		<p>Your account has been created. Post a task or start bidding right away.</p>
		<p>Best regards,<br>The GigMarket Team</p>
	`, username)
	m.SetBody("text/html", body)

	if s.dryRun {
		log.Printf("[email][dry-run] welcome mail to %q skipped", email)
		return nil
	}
	return s.dialer.DialAndSend(m)
}
