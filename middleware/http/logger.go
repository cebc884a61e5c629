package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/kochabx/geostego/core/util/id"
	"github.com/kochabx/geostego/log"
)

// HeaderRequestID 请求 ID 头，同时作为 gin.Context 中的键
const HeaderRequestID = "X-Request-Id"

// LoggerConfig 访问日志。请求体与响应体可能含坐标、关键词与消息，不记录
type LoggerConfig struct {
	Logger    *log.Logger
	SkipPaths []string
}

// Logger 访问日志中间件，缺少 X-Request-Id 时生成一个并回写到响应头
func Logger(cfg LoggerConfig) gin.HandlerFunc {
	logger := cfg.Logger
	if logger == nil {
		logger = log.G
	}
	skip := NewPathMatcher(cfg.SkipPaths)

	return func(c *gin.Context) {
		rid := c.GetHeader(HeaderRequestID)
		if rid == "" {
			rid = id.Compact()
		}
		c.Set(HeaderRequestID, rid)
		c.Header(HeaderRequestID, rid)

		if skip.Match(c.Request.URL.Path) {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		ev := logger.WithLevel(levelFor(status)).
			Str("request_id", rid).
			Str("method", c.Request.Method).
			Str("route", route).
			Int("status", status).
			Int("size", c.Writer.Size()).
			Dur("elapsed", time.Since(start)).
			Str("client_ip", c.ClientIP())
		if len(c.Errors) > 0 {
			ev = ev.Str("errors", c.Errors.String())
		}
		ev.Send()
	}
}

func levelFor(status int) zerolog.Level {
	switch {
	case status >= 500:
		return zerolog.ErrorLevel
	case status >= 400:
		return zerolog.WarnLevel
	default:
		return zerolog.InfoLevel
	}
}
