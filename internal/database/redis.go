package database

import (
	"context"
	"fmt"
	"time"

	"github.com/platterhub/service-booking/internal/config"
	"github.com/redis/go-redis/v9"
)

// ConnectRedis creates a Redis client and verifies it answers PING.
func ConnectRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("cannot ping Redis at %s: %w", cfg.Addr, err)
	}
	return client, nil
}
