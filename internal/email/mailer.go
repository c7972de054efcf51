package email

import (
	"context"
	"fmt"
	"net/smtp"

	"marketplace-api/internal/logging"
)

// Mailer delivers account emails. The SMTP implementation is used when a
// transport is configured at startup; otherwise the no-op implementation
// stands in so the account service never has to care.
type Mailer interface {
	SendPasswordResetCode(ctx context.Context, toEmail, code string) error
}

// SMTPMailer sends mail through a plain-auth SMTP relay
type SMTPMailer struct {
	host     string
	port     string
	user     string
	password string
	from     string
}

func NewSMTPMailer(host, port, user, password string) *SMTPMailer {
	return &SMTPMailer{
		host:     host,
		port:     port,
		user:     user,
		password: password,
		from:     user,
	}
}

// SendPasswordResetCode emails a one-time password reset code.
// Designed to be called from a goroutine; callers must not block on it.
func (s *SMTPMailer) SendPasswordResetCode(ctx context.Context, toEmail, code string) error {
	logger := logging.GetLoggerFromContext(ctx)

	subject := "Your password reset code"
	body := fmt.Sprintf("Your password reset code is: %s\r\n\r\nIt expires in 15 minutes. If you did not request this, ignore this email.\r\n", code)

	msg := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n\r\n%s",
		s.from, toEmail, subject, body,
	))

	auth := smtp.PlainAuth("", s.user, s.password, s.host)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)

	if err := smtp.SendMail(addr, auth, s.from, []string{toEmail}, msg); err != nil {
		logger.Error("failed to send password reset email", "email", toEmail, "error", err.Error())
		return fmt.Errorf("send email: %w", err)
	}

	logger.Info("password reset email sent", "email", toEmail)
	return nil
}

// NoopMailer is used when no SMTP transport is configured. The reset code
// is logged so the flow stays usable in development.
type NoopMailer struct {
	logger *logging.Logger
}

func NewNoopMailer(logger *logging.Logger) *NoopMailer {
	return &NoopMailer{logger: logger}
}

func (n *NoopMailer) SendPasswordResetCode(_ context.Context, toEmail, code string) error {
	n.logger.Info("mail transport not configured, skipping delivery",
		"email", toEmail,
		"reset_code", code,
	)
	return nil
}
