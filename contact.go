package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
)

// ErrSMTPNotConfigured means no SMTP credentials were provided.
var ErrSMTPNotConfigured = errors.New("SMTP credentials not configured")

// Mailer delivers contact form submissions.
type Mailer interface {
	SendContact(name, email, message string) error
}

// smtpMailer sends contact messages through an SMTP relay.
type smtpMailer struct {
	host, port string
	user, pass string
	to         string
	send       func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func newSMTPMailer(cfg *Config) *smtpMailer {
	to := cfg.ToEmail
	if to == "" {
		to = cfg.SMTPUser
	}
	return &smtpMailer{
		host: cfg.SMTPHost,
		port: cfg.SMTPPort,
		user: cfg.SMTPUser,
		pass: cfg.SMTPPass,
		to:   to,
		send: smtp.SendMail,
	}
}

// contactMessage composes the mail sent for one submission.
func contactMessage(from, to, name, email, message string) []byte {
	subject := fmt.Sprintf("Portfolio Contact: %s", sanitizeHeader(name))
	body := fmt.Sprintf(`
New contact form submission from your portfolio:

Name: %s
Email: %s
Message:
%s

---
Sent from your portfolio contact form
`, name, email, message)

	return []byte("To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"From: " + from + "\r\n" +
		"Reply-To: " + sanitizeHeader(email) + "\r\n" +
		"\r\n" +
		body + "\r\n")
}

// sanitizeHeader strips line breaks so form input cannot inject headers.
func sanitizeHeader(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}

func (m *smtpMailer) SendContact(name, email, message string) error {
	if m.user == "" || m.pass == "" {
		return ErrSMTPNotConfigured
	}

	msg := contactMessage(m.user, m.to, name, email, message)
	auth := smtp.PlainAuth("", m.user, m.pass, m.host)
	if err := m.send(m.host+":"+m.port, auth, m.user, []string{m.to}, msg); err != nil {
		return fmt.Errorf("send contact email: %w", err)
	}

	slog.Info("Contact email sent", "name", name)
	return nil
}
