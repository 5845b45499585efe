package notifications

import (
	"errors"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"

	"github.com/you/safetyauth/domain"
)

// ErrDeliveryDisabled is returned when a channel has no provider configured
var ErrDeliveryDisabled = errors.New("delivery channel not configured")

// TwilioServiceImpl implements domain.NotificationService. SMS goes through
// Twilio, email through SendGrid.
type TwilioServiceImpl struct {
	client     *twilio.RestClient
	fromNumber string
	mailer     *SendGridMailer
	logger     *zap.Logger
}

// NewTwilioService creates a new Twilio notification service. mailer may be
// nil, in which case email delivery fails with ErrDeliveryDisabled.
func NewTwilioService(accountSID, authToken, fromNumber string, mailer *SendGridMailer, logger *zap.Logger) domain.NotificationService {
	if logger == nil {
		logger = zap.L()
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})

	return &TwilioServiceImpl{
		client:     client,
		fromNumber: fromNumber,
		mailer:     mailer,
		logger:     logger.Named("notifications"),
	}
}

// SendSMS implements domain.NotificationService
func (t *TwilioServiceImpl) SendSMS(to, message string) error {
	if t.fromNumber == "" {
		return fmt.Errorf("sms to %s: %w", maskPhone(to), ErrDeliveryDisabled)
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(t.fromNumber)
	params.SetBody(message)

	_, err := t.client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("failed to send SMS: %w", err)
	}
	t.logger.Debug("sms sent", zap.String("to", maskPhone(to)))

	return nil
}

// SendEmail implements domain.NotificationService
func (t *TwilioServiceImpl) SendEmail(to, subject, body string) error {
	if t.mailer == nil {
		return fmt.Errorf("email %q: %w", subject, ErrDeliveryDisabled)
	}
	return t.mailer.Send(to, subject, body)
}

func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return "****" + phone[len(phone)-4:]
}
