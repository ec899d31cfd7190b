package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewRedisClient parses url (redis:// or rediss://) and pings the server.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}

// RedisLimiter shares counters across replicas. The window starts with the
// first INCR of a key; EXPIRE NX keeps later calls from extending it.
type RedisLimiter struct {
	client redis.Cmdable
	log    *zap.Logger
}

func NewRedisLimiter(client redis.Cmdable, log *zap.Logger) *RedisLimiter {
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisLimiter{client: client, log: log}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if limit <= 0 {
		return true, nil
	}

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		l.log.Error("rate limit counter failed", zap.String("key", key), zap.Error(err))
		return false, fmt.Errorf("increment rate limit counter: %w", err)
	}

	count := incr.Val()
	l.log.Debug("rate limit counter incremented", zap.String("key", key), zap.Int64("count", count), zap.Int("limit", limit))
	return count <= int64(limit), nil
}
