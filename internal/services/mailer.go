package services

import (
	"context"
	"log/slog"
)

// Mailer delivers account emails.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, token string) error
}

// LogMailer writes outgoing mail to the log instead of sending it. It is the
// default until a delivery provider is configured.
type LogMailer struct{}

func (LogMailer) SendPasswordReset(ctx context.Context, to, token string) error {
	slog.InfoContext(ctx, "password reset requested", "to", to, "token_len", len(token))
	return nil
}
