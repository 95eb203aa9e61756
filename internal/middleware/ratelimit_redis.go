package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/selfie-proxy/server-go/internal/redis"
)

var rateLimitScript = goredis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]

local windowStart = now - window

redis.call('ZREMRANGEBYSCORE', key, '-inf', windowStart)

local count = redis.call('ZCARD', key)

if count >= limit then
    local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
    local resetAt = 0
    if #oldest >= 2 then
        resetAt = tonumber(oldest[2]) + window
    else
        resetAt = now + window
    end
    return {0, 0, resetAt}
end

redis.call('ZADD', key, now, member)
redis.call('EXPIRE', key, window + 10)

local remaining = limit - count - 1
local resetAt = now + window

return {1, remaining, resetAt}
`)

// RedisRateLimiter shares counters between replicas. It fails open when
// Redis is unreachable.
type RedisRateLimiter struct {
	client goredis.Scripter
	window time.Duration
	now    func() time.Time
}

func NewRedisRateLimiter(client goredis.Scripter, window time.Duration) *RedisRateLimiter {
	return &RedisRateLimiter{client: client, window: window, now: time.Now}
}

func (rl *RedisRateLimiter) Check(ctx context.Context, key string, limit int) (allowed bool, remaining int, resetAt int64) {
	now := rl.now().Unix()
	windowSeconds := int64(rl.window.Seconds())

	member := fmt.Sprintf("%d-%s", now, uuid.NewString())

	result, err := rateLimitScript.Run(ctx, rl.client, []string{redis.RateLimitKey(key)}, now, windowSeconds, limit, member).Int64Slice()
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("redis rate limit check failed, allowing request")
		return true, limit - 1, now + windowSeconds
	}

	if len(result) != 3 {
		log.Warn().Str("key", key).Msg("unexpected redis rate limit result")
		return true, limit - 1, now + windowSeconds
	}

	return result[0] == 1, int(result[1]), result[2]
}
