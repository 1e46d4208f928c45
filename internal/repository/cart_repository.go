package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cartz/cartz-backend/internal/models"
)

// CartRepository defines cart persistence. A missing cart is reported
// as (nil, nil), never as an error.
type CartRepository interface {
	GetCart(ctx context.Context, userID string) (*models.Cart, error)
	SaveCart(ctx context.Context, cart *models.Cart) error
	DeleteCart(ctx context.Context, userID string) error
}

// RedisCartRepository stores each cart as a JSON document keyed by user
// ID, with a TTL refreshed on every save.
type RedisCartRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCartRepository(client *redis.Client, ttl time.Duration) *RedisCartRepository {
	return &RedisCartRepository{client: client, ttl: ttl}
}

func (r *RedisCartRepository) getKey(userID string) string {
	return fmt.Sprintf("cart:user:%s", userID)
}

func (r *RedisCartRepository) GetCart(ctx context.Context, userID string) (*models.Cart, error) {
	data, err := r.client.Get(ctx, r.getKey(userID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var cart models.Cart
	if err := json.Unmarshal([]byte(data), &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *RedisCartRepository) SaveCart(ctx context.Context, cart *models.Cart) error {
	cart.UpdatedAt = time.Now()

	data, err := json.Marshal(cart)
	if err != nil {
		return err
	}

	return r.client.Set(ctx, r.getKey(cart.UserID), data, r.ttl).Err()
}

func (r *RedisCartRepository) DeleteCart(ctx context.Context, userID string) error {
	return r.client.Del(ctx, r.getKey(userID)).Err()
}
