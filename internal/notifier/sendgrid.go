package notifier

import (
	"context"
	"fmt"
	"html"

	"stockledger-backend/internal/domain"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type emailSender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// SendGridChannel emails an alert to a fixed recipient list.
type SendGridChannel struct {
	client     emailSender
	fromEmail  string
	fromName   string
	recipients []string
}

func NewSendGridChannel(apiKey, fromEmail, fromName string, recipients []string) *SendGridChannel {
	return &SendGridChannel{
		client:     sendgrid.NewSendClient(apiKey),
		fromEmail:  fromEmail,
		fromName:   fromName,
		recipients: recipients,
	}
}

func (c *SendGridChannel) Name() string { return "sendgrid" }

func (c *SendGridChannel) Send(ctx context.Context, alert domain.StockAlert) error {
	message := mail.NewV3Mail()
	message.SetFrom(mail.NewEmail(c.fromName, c.fromEmail))
	message.Subject = subject(alert)

	personalization := mail.NewPersonalization()
	for _, to := range c.recipients {
		personalization.AddTos(mail.NewEmail("", to))
	}
	message.AddPersonalizations(personalization)

	plain := body(alert)
	message.AddContent(
		mail.NewContent("text/plain", plain),
		mail.NewContent("text/html", fmt.Sprintf(`<html><body><h2>Low stock</h2><pre>%s</pre></body></html>`, html.EscapeString(plain))),
	)

	response, err := c.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send stock alert email: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
	}
	return nil
}
