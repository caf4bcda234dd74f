package notifier

import (
	"context"
	"fmt"
	"strconv"

	"stockledger-backend/internal/domain"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

type messageSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// PushChannel publishes alerts to a Firebase Cloud Messaging topic that the
// stockroom devices subscribe to.
type PushChannel struct {
	client messageSender
	topic  string
}

func NewPushChannel(ctx context.Context, credentialsFile, topic string) (*PushChannel, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("initializing firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("initializing firebase messaging: %w", err)
	}
	return &PushChannel{client: client, topic: topic}, nil
}

func (c *PushChannel) Name() string { return "fcm" }

func (c *PushChannel) Send(ctx context.Context, alert domain.StockAlert) error {
	msg := &messaging.Message{
		Topic: c.topic,
		Notification: &messaging.Notification{
			Title: subject(alert),
			Body:  fmt.Sprintf("Trigger: %s", alert.Reason),
		},
		Data: map[string]string{
			"correlation_id":    alert.CorrelationID,
			"item_id":           strconv.Itoa(int(alert.ItemID)),
			"stock_level":       strconv.Itoa(int(alert.StockLevel)),
			"minimum_threshold": strconv.Itoa(int(alert.MinimumThreshold)),
			"reason":            alert.Reason,
		},
	}
	if _, err := c.client.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish stock alert: %w", err)
	}
	return nil
}
