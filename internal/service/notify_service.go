package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"
)

type SendGridEmailSender struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
	logger    *zap.Logger
}

func NewSendGridEmailSender(apiKey, fromEmail, fromName string, logger *zap.Logger) (*SendGridEmailSender, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("SENDGRID_API_KEY is required")
	}
	if fromEmail == "" {
		return nil, fmt.Errorf("SENDGRID_FROM_EMAIL is required")
	}
	return &SendGridEmailSender{
		client:    sendgrid.NewSendClient(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
		logger:    logger,
	}, nil
}

func (s *SendGridEmailSender) SendEmail(ctx context.Context, toEmail, toName, subject, plainText, html string) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, plainText, html)

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send to %s failed: %w", toEmail, err)
	}
	if response.StatusCode >= 200 && response.StatusCode < 300 {
		s.logger.Debug("email sent", zap.String("to", toEmail), zap.String("subject", subject),
			zap.Int("status", response.StatusCode))
		return nil
	}
	return fmt.Errorf("sendgrid returned status %d: %s", response.StatusCode, response.Body)
}

type TwilioSMSSender struct {
	client     *twilio.RestClient
	fromNumber string
	logger     *zap.Logger
}

func NewTwilioSMSSender(accountSID, authToken, fromNumber string, logger *zap.Logger) (*TwilioSMSSender, error) {
	if accountSID == "" || authToken == "" || fromNumber == "" {
		return nil, fmt.Errorf("TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and TWILIO_FROM_NUMBER are required")
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username:   accountSID,
		Password:   authToken,
		AccountSid: accountSID,
	})
	return &TwilioSMSSender{client: client, fromNumber: fromNumber, logger: logger}, nil
}

func (s *TwilioSMSSender) SendSMS(_ context.Context, to, body string) error {
	if !strings.HasPrefix(to, "+") {
		s.logger.Warn("destination number is not in E.164 format", zap.String("to", to))
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.fromNumber)
	params.SetBody(body)

	resp, err := s.client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("twilio send to %s failed: %w", to, err)
	}
	if resp != nil && resp.Sid != nil {
		s.logger.Debug("sms sent", zap.String("to", to), zap.String("sid", *resp.Sid))
	}
	return nil
}
