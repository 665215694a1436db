package middleware

import (
	"context"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/dtroode/community-board-server/internal/logger"
)

// redisAPI is the subset of *redis.Client used by the limiter.
type redisAPI interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	TTL(ctx context.Context, key string) *redis.DurationCmd
	Close() error
}

type redisRateLimiter struct {
	client  redisAPI
	logger  *logger.Logger
	prefix  string
	timeout time.Duration
}

// NewRedisRateLimiter connects to redis and returns a limiter shared by every server instance.
func NewRedisRateLimiter(ctx context.Context, addr, password string, db int, logger *logger.Logger) (RateLimiter, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return newRedisRateLimiter(client, logger), nil
}

func newRedisRateLimiter(client redisAPI, logger *logger.Logger) *redisRateLimiter {
	return &redisRateLimiter{
		client:  client,
		logger:  logger,
		prefix:  "community:ratelimit:",
		timeout: 250 * time.Millisecond,
	}
}

// Allow fails open: a redis error lets the request through.
func (rl *redisRateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) RateDecision {
	if limit <= 0 {
		return RateDecision{Allowed: true}
	}
	if window <= 0 {
		window = time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, rl.timeout)
	defer cancel()

	redisKey := rl.prefix + key
	counter, err := rl.client.Incr(ctx, redisKey).Result()
	if err != nil {
		rl.logRedisError("incr", err)
		return RateDecision{Allowed: true}
	}
	ttl, err := rl.client.TTL(ctx, redisKey).Result()
	if err != nil {
		rl.logRedisError("ttl", err)
	}
	// A negative TTL means the key has no expiry, so the window would never reset.
	if counter == 1 || (err == nil && ttl < 0) {
		if err := rl.client.Expire(ctx, redisKey, window).Err(); err != nil {
			rl.logRedisError("expire", err)
		}
		ttl = window
	}
	if err != nil || ttl <= 0 {
		ttl = window
	}

	return RateDecision{
		Allowed:   int(counter) <= limit,
		Count:     int(counter),
		WindowEnd: time.Now().Add(ttl),
	}
}

func (rl *redisRateLimiter) Close() {
	if rl.client != nil {
		_ = rl.client.Close()
	}
}

func (rl *redisRateLimiter) logRedisError(op string, err error) {
	rl.logger.Error("Rate limiter: redis error", "op", op, "error", err.Error())
}
