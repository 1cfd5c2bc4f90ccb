package notification

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// SMTPConfig holds the settings for the outbound mail relay.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer delivers verification emails through a plain-auth SMTP relay.
type SMTPMailer struct {
	cfg SMTPConfig
}

// NewSMTPMailer builds an SMTP-backed mailer.
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

// SendVerificationEmail sends the verification code to the recipient.
func (m *SMTPMailer) SendVerificationEmail(_ context.Context, displayName, email, code string) error {
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", email)
	msg.WriteString("Subject: Verify your email address\r\n")
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	fmt.Fprintf(&msg, "Hi %s,\r\n\r\nYour verification code is %s. It expires in a few hours.\r\n", displayName, code)

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{email}, []byte(msg.String())); err != nil {
		return fmt.Errorf("send verification email: %w", err)
	}
	return nil
}
