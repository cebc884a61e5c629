package kafka

import (
	"github.com/kochabx/geostego/log"
)

// Option 客户端选项
type Option func(*Client)

// WithLogger 设置日志，kafka-go 内部错误也写入该日志
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithAuth 覆盖配置中的 SASL/PLAIN 凭据
func WithAuth(username, password string) Option {
	return func(c *Client) {
		c.username, c.password = username, password
	}
}
