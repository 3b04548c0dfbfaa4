package auth

import (
	"context"
	"fmt"
	"log/slog"
)

// SMSSender delivers one-time codes to a phone number
type SMSSender interface {
	Send(ctx context.Context, phone, message string) error
}

// LogSender writes messages to the log instead of an SMS gateway.
// Used in development and until a provider is configured.
type LogSender struct {
	Logger *slog.Logger
}

func (s LogSender) Send(ctx context.Context, phone, message string) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "SMS", "phone", maskPhone(phone), "message", message)
	return nil
}

func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return phone
	}
	return fmt.Sprintf("%s%s", "******", phone[len(phone)-4:])
}
