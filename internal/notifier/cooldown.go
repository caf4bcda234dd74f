package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const cooldownKeyPrefix = "stockledger:alert-cooldown:"

// RedisCooldown shares the cooldown window across server and cronjob
// instances with SET NX EX.
type RedisCooldown struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCooldown(client *redis.Client, ttl time.Duration) *RedisCooldown {
	return &RedisCooldown{client: client, ttl: ttl}
}

func (c *RedisCooldown) Acquire(ctx context.Context, itemID int32) (bool, error) {
	key := fmt.Sprintf("%s%d", cooldownKeyPrefix, itemID)
	ok, err := c.client.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), c.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquiring alert cooldown for item %d: %w", itemID, err)
	}
	return ok, nil
}

// NoopCooldown never suppresses an alert.
type NoopCooldown struct{}

func (NoopCooldown) Acquire(context.Context, int32) (bool, error) { return true, nil }
