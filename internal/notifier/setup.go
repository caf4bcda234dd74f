package notifier

import (
	"context"
	"fmt"

	"stockledger-backend/internal/config"
	"stockledger-backend/internal/logger"
	"stockledger-backend/internal/repository"

	"github.com/redis/go-redis/v9"
)

// FromConfig assembles a ThresholdNotifier from the enabled channels. The
// returned close func releases the Redis client, if one was opened.
func FromConfig(ctx context.Context, cfg config.NotifierConfig, alerts repository.StockAlertRepository) (*ThresholdNotifier, func() error, error) {
	var channels []Channel
	closeFn := func() error { return nil }

	if cfg.InboxEnabled {
		channels = append(channels, NewInboxChannel(alerts))
	}
	if cfg.SendGrid.APIKey != "" {
		channels = append(channels, NewSendGridChannel(cfg.SendGrid.APIKey, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName, cfg.SendGrid.Recipients))
	}
	if cfg.FCM.CredentialsFile != "" {
		push, err := NewPushChannel(ctx, cfg.FCM.CredentialsFile, cfg.FCM.Topic)
		if err != nil {
			return nil, nil, fmt.Errorf("initializing push channel: %w", err)
		}
		channels = append(channels, push)
	}
	if len(channels) == 0 {
		logger.Warn("No alert channels enabled, low-stock alerts will only be logged")
	}

	var cooldown Cooldown = NoopCooldown{}
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis unreachable, cooldown checks will fail open", "addr", cfg.Redis.Addr, "error", err)
		}
		cooldown = NewRedisCooldown(client, cfg.Cooldown())
		closeFn = client.Close
	}

	names := make([]string, len(channels))
	for i, ch := range channels {
		names[i] = ch.Name()
	}
	logger.Info("Threshold notifier configured", "channels", names, "sharedCooldown", cfg.Redis.Addr != "")

	return NewThresholdNotifier(cooldown, channels...), closeFn, nil
}
