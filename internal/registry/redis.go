package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"virezo-server/internal/domain"
)

const redisKeyPrefix = "video:op:"

// Redis is a Store backed by a Redis instance. Retention rides on key TTL,
// so no sweep goroutine is needed and records survive process restarts.
type Redis struct {
	client    *redis.Client
	retention time.Duration
}

// NewRedis constructs a Redis store and verifies connectivity.
func NewRedis(ctx context.Context, addr, password string, retention time.Duration) (*Redis, error) {
	if retention <= 0 {
		retention = DefaultRetention
	}
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DialTimeout:  10 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("registry: redis ping: %w", err)
	}

	return &Redis{client: client, retention: retention}, nil
}

func (r *Redis) Put(ctx context.Context, id string, op *domain.Operation) error {
	payload, err := json.Marshal(op)
	if err != nil {
		return fmt.Errorf("registry: encode operation: %w", err)
	}
	return r.client.Set(ctx, redisKeyPrefix+id, payload, r.retention).Err()
}

func (r *Redis) Get(ctx context.Context, id string) (*domain.Operation, error) {
	payload, err := r.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("registry: redis get: %w", err)
	}
	var op domain.Operation
	if err := json.Unmarshal(payload, &op); err != nil {
		return nil, fmt.Errorf("registry: decode operation: %w", err)
	}
	return &op, nil
}

func (r *Redis) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, redisKeyPrefix+id).Err()
}

// Close releases the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}

var _ Store = (*Redis)(nil)
