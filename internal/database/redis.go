package database

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/sheeplab/sheepdiary/internal/config"
)

// NewRedis dials Redis from a connection URL and pings it before returning.
// Redis backs auth sessions and the diary suggestion job queue, so startup
// fails fast if it is unreachable.
func NewRedis(cfg config.RedisConfig) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return client, nil
}
