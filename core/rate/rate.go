package rate

import (
	"context"
	"time"
)

// Limiter 按 key 限流
type Limiter interface {
	// AllowN 在 now 时刻为 key 申请 n 个配额
	AllowN(ctx context.Context, key string, now time.Time, n int) (bool, error)
}

// Allow 申请 1 个配额
func Allow(ctx context.Context, l Limiter, key string) (bool, error) {
	return l.AllowN(ctx, key, time.Now(), 1)
}
