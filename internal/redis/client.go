package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/selfie-proxy/server-go/internal/config"
)

type Client struct {
	*redis.Client
}

func NewClient(redisURL string) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), config.PingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Client{client}, nil
}

// Health checks if the Redis connection is healthy.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.Client.Close()
}

func SessionKey(sessionID string) string {
	return fmt.Sprintf("selfie:session:%s", sessionID)
}

func RateLimitKey(clientIP string) string {
	return fmt.Sprintf("selfie:ratelimit:%s", clientIP)
}
