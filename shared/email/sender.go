package email

import (
	"fmt"
	"net/smtp"
	"strings"

	"creative-pipeline/shared/config"
)

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type Sender struct {
	config *config.EmailConfig
	send   sendFunc
}

func NewSender(cfg *config.EmailConfig) *Sender {
	return &Sender{
		config: cfg,
		send:   smtp.SendMail,
	}
}

// Validate reports missing SMTP settings.
func (s *Sender) Validate() error {
	var missing []string
	if s.config.SMTPServer == "" {
		missing = append(missing, "smtp_server")
	}
	if s.config.FromEmail == "" {
		missing = append(missing, "from_email")
	}
	if s.config.ToEmail == "" {
		missing = append(missing, "to_email")
	}
	if len(missing) > 0 {
		return fmt.Errorf("email sender misconfigured: missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// SendHTML sends an email with custom HTML content
func (s *Sender) SendHTML(subject, htmlBody string) error {
	if err := s.Validate(); err != nil {
		return err
	}
	return s.sendViaSMTP(subject, htmlBody)
}

func (s *Sender) sendViaSMTP(subject, body string) error {
	var auth smtp.Auth
	if s.config.Username != "" {
		auth = smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.SMTPServer)
	}

	to := []string{s.config.ToEmail}
	msg := []byte(fmt.Sprintf(`To: %s
From: %s
Subject: %s
MIME-Version: 1.0
Content-Type: text/html; charset=UTF-8

%s`, s.config.ToEmail, s.config.FromEmail, subject, body))

	addr := fmt.Sprintf("%s:%d", s.config.SMTPServer, s.config.SMTPPort)
	if err := s.send(addr, auth, s.config.FromEmail, to, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
