package db

import (
	"time"

	"github.com/kochabx/geostego/log"
)

// Option 客户端选项
type Option func(*options)

type options struct {
	logger         *log.Logger
	connectTimeout time.Duration
}

// WithLogger gorm 日志写入 l，默认 log.G
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithConnectTimeout 建连后首次 Ping 的超时，默认 10s
func WithConnectTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.connectTimeout = d
		}
	}
}
