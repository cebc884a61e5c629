package rate

import (
	"context"
	_ "embed"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	//go:embed tokenbucket.lua
	tokenBucketLua       string
	tokenBucketLuaScript = redis.NewScript(tokenBucketLua)
)

// TokenBucketLimiter 基于 Redis 哈希的令牌桶限流
type TokenBucketLimiter struct {
	client   redis.UniversalClient
	prefix   string
	capacity int
	rate     int
}

// NewTokenBucketLimiter 桶容量 capacity，每秒补充 rate 个令牌
func NewTokenBucketLimiter(client redis.UniversalClient, prefix string, capacity, rate int) *TokenBucketLimiter {
	return &TokenBucketLimiter{
		client:   client,
		prefix:   prefix,
		capacity: capacity,
		rate:     max(rate, 1),
	}
}

func (l *TokenBucketLimiter) AllowN(ctx context.Context, key string, now time.Time, n int) (bool, error) {
	result, err := tokenBucketLuaScript.Run(ctx, l.client, []string{l.prefix + key},
		l.capacity, l.rate, now.UnixMilli(), n).Int64()
	if err != nil {
		return false, err
	}
	return result == 1, nil
}

var _ Limiter = (*TokenBucketLimiter)(nil)
