package service

import (
	"context"

	"go.uber.org/zap"
)

type EmailSender interface {
	SendEmail(ctx context.Context, toEmail, toName, subject, plainText, html string) error
}

type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// LogEmailSender stands in for SendGrid when no API key is configured.
type LogEmailSender struct {
	Logger *zap.Logger
}

func (s LogEmailSender) SendEmail(_ context.Context, toEmail, _, subject, _, _ string) error {
	s.Logger.Info("email not sent, SendGrid is not configured",
		zap.String("to", toEmail), zap.String("subject", subject))
	return nil
}

// LogSMSSender stands in for Twilio when credentials are missing.
type LogSMSSender struct {
	Logger *zap.Logger
}

func (s LogSMSSender) SendSMS(_ context.Context, to, body string) error {
	s.Logger.Info("sms not sent, Twilio is not configured", zap.String("to", to), zap.Int("length", len(body)))
	return nil
}
