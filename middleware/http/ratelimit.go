package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/kochabx/geostego/core/rate"
	"github.com/kochabx/geostego/errors"
	"github.com/kochabx/geostego/log"
	"github.com/kochabx/geostego/transport/http/response"
)

// ErrTooManyRequests 超出限流配额
var ErrTooManyRequests = errors.TooManyRequests("too many requests")

// RateLimitConfig 限流中间件配置
type RateLimitConfig struct {
	Limiter   rate.Limiter              // 限流器，nil 时不限流
	KeyFunc   func(*gin.Context) string // 限流维度，默认客户端 IP
	FailOpen  bool                      // 限流器出错时放行
	SkipPaths []string                  // 跳过的路径
	Logger    *log.Logger               // 自定义日志记录器
}

// RateLimit 创建限流中间件，超限返回 429
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.Limiter == nil {
		return func(c *gin.Context) { c.Next() }
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = func(c *gin.Context) string { return c.ClientIP() }
	}
	if cfg.Logger == nil {
		cfg.Logger = log.G
	}
	matcher := NewPathMatcher(cfg.SkipPaths)

	return func(c *gin.Context) {
		if matcher.Match(c.Request.URL.Path) {
			c.Next()
			return
		}

		ok, err := rate.Allow(c.Request.Context(), cfg.Limiter, cfg.KeyFunc(c))
		if err != nil {
			cfg.Logger.Warn().Err(err).Msg("rate limiter unavailable")
			if !cfg.FailOpen {
				response.GinJSONE(c, errors.ServiceUnavailable("rate limiter unavailable"))
				return
			}
			ok = true
		}
		if !ok {
			response.GinJSONE(c, ErrTooManyRequests)
			return
		}
		c.Next()
	}
}
