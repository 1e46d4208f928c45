package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// OrderEvent is the payload published on order lifecycle changes.
type OrderEvent struct {
	Event       string    `json:"event"`
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	UserID      string    `json:"user_id"`
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
}

// Publisher delivers order events to interested consumers. Publishing
// is best-effort: callers log failures and carry on.
type Publisher interface {
	Publish(ctx context.Context, event OrderEvent) error
}

// RedisPublisher broadcasts order events on a Redis pub/sub channel.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, event OrderEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, p.channel, payload).Err()
}
