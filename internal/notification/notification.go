package notification

import (
	"context"
	"log/slog"
)

// OTPMetadata is passed along with a login OTP so the SMS gateway can address
// the recipient by name.
type OTPMetadata struct {
	FirstName string
	LastName  string
}

// Mailer delivers email-verification codes. Delivery failure must not roll
// back the account mutation that minted the code; the next issuance
// overwrites the secret.
type Mailer interface {
	SendVerificationEmail(ctx context.Context, displayName, email, code string) error
}

// SMSSender delivers login OTPs to a phone number, same failure policy as
// Mailer.
type SMSSender interface {
	SendOTP(ctx context.Context, phoneNumber string, meta OTPMetadata, code string) error
}

// LogSender writes outbound messages to the structured logger instead of
// delivering them. Used outside production, where codes are echoed to the
// caller anyway.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender constructs a logging delivery stub.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// SendVerificationEmail logs the delivery instead of sending it. The code
// itself is never logged.
func (s *LogSender) SendVerificationEmail(_ context.Context, displayName, email, _ string) error {
	if s == nil || s.logger == nil {
		return nil
	}
	s.logger.Info("verification email", "recipient", displayName, "email", email)
	return nil
}

// SendOTP logs the delivery instead of sending it.
func (s *LogSender) SendOTP(_ context.Context, phoneNumber string, meta OTPMetadata, _ string) error {
	if s == nil || s.logger == nil {
		return nil
	}
	s.logger.Info("login otp", "phone_number", phoneNumber, "first_name", meta.FirstName)
	return nil
}
