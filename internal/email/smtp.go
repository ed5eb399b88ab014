package email

import (
	"context"
	"fmt"

	gomail "gopkg.in/gomail.v2"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type smtpService struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPService(cfg SMTPConfig) Service {
	return &smtpService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *smtpService) SendOrganizationWelcome(ctx context.Context, to, organizationName string) error {
	subject := fmt.Sprintf("Your organization %q is ready", organizationName)
	body := fmt.Sprintf("Your organization %q has been created and you are its administrator.", organizationName)
	return s.send(to, subject, body)
}

func (s *smtpService) SendJoinApproved(ctx context.Context, to, organizationName string) error {
	subject := fmt.Sprintf("Welcome to %s", organizationName)
	body := fmt.Sprintf("Your request to join %q has been approved.", organizationName)
	return s.send(to, subject, body)
}

func (s *smtpService) SendJoinRejected(ctx context.Context, to, organizationName string) error {
	subject := "Your membership request"
	body := fmt.Sprintf("Your request to join %q was not approved. You may apply again.", organizationName)
	return s.send(to, subject, body)
}

func (s *smtpService) send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
