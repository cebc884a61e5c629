package rate

import (
	"context"
	_ "embed"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kochabx/geostego/core/util/id"
)

var (
	//go:embed slidingwindow.lua
	slidingWindowLua       string
	slidingWindowLuaScript = redis.NewScript(slidingWindowLua)
)

// SlidingWindowLimiter 基于 Redis 有序集合的滑动窗口限流
type SlidingWindowLimiter struct {
	client redis.UniversalClient
	prefix string
	window time.Duration
	limit  int
}

// NewSlidingWindowLimiter 每个 key 在 window 内最多 limit 次
func NewSlidingWindowLimiter(client redis.UniversalClient, prefix string, window time.Duration, limit int) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		client: client,
		prefix: prefix,
		window: window,
		limit:  limit,
	}
}

func (l *SlidingWindowLimiter) AllowN(ctx context.Context, key string, now time.Time, n int) (bool, error) {
	result, err := slidingWindowLuaScript.Run(ctx, l.client, []string{l.prefix + key},
		l.window.Milliseconds(), l.limit, now.UnixMilli(), n, id.Compact()).Int64()
	if err != nil {
		return false, err
	}
	return result == 1, nil
}

var _ Limiter = (*SlidingWindowLimiter)(nil)
