package redis

import (
	"github.com/redis/go-redis/v9"

	"github.com/kochabx/geostego/log"
)

// Option 客户端选项
type Option func(*Client)

func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithHooks 追加命令 Hook，在内置 Hook 之后执行
func WithHooks(hooks ...redis.Hook) Option {
	return func(c *Client) {
		c.hooks = append(c.hooks, hooks...)
	}
}
