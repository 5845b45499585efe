package notifications

import (
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const sendGridEndpoint = "/v3/mail/send"

// SendGridMailer delivers email through the SendGrid v3 API
type SendGridMailer struct {
	apiKey   string
	host     string
	fromName string
	fromAddr string
}

// NewSendGridMailer creates a mailer. An empty host targets the public API.
func NewSendGridMailer(apiKey, host, fromAddr, fromName string) *SendGridMailer {
	return &SendGridMailer{
		apiKey:   apiKey,
		host:     host,
		fromName: fromName,
		fromAddr: fromAddr,
	}
}

// client builds a client per message; Send writes the body into the
// client's request.
func (m *SendGridMailer) client() *sendgrid.Client {
	req := sendgrid.GetRequest(m.apiKey, sendGridEndpoint, m.host)
	req.Method = "POST"
	return &sendgrid.Client{Request: req}
}

// Send posts a plain-text message
func (m *SendGridMailer) Send(to, subject, body string) error {
	msg := mail.NewSingleEmail(
		mail.NewEmail(m.fromName, m.fromAddr),
		subject,
		mail.NewEmail("", to),
		body,
		"",
	)
	resp, err := m.client().Send(msg)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("failed to send email: sendgrid returned %d", resp.StatusCode)
	}
	return nil
}
