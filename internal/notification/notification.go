package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const (
	// KindEmailVerification indicates an email-verification code delivery.
	KindEmailVerification = "email_verification"
	// KindPasswordReset indicates a password-reset code delivery.
	KindPasswordReset = "password_reset"
)

// Message describes a notification payload.
type Message struct {
	Kind        string
	Destination string
	Body        string
}

// Notifier delivers notifications to downstream systems.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// OTPBody renders the plain-text body carrying a one-time code.
func OTPBody(kind, code string, ttl time.Duration) string {
	subject := "email verification"
	if kind == KindPasswordReset {
		subject = "password reset"
	}
	return fmt.Sprintf(
		"Your %s code is %s. It expires in %d minutes. If you did not request this code, no further action is required.",
		subject, code, int(ttl.Minutes()),
	)
}

// LoggerNotifier is a stub implementation that writes notifications to the logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier stub.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("notification", "kind", message.Kind, "destination", message.Destination, "body", message.Body)
	return nil
}
