package app

import (
	"context"
	"os"
	"time"

	"github.com/kochabx/geostego/log"
	"github.com/kochabx/geostego/transport"
)

type Option func(*App)

// WithContext 父上下文取消时开始关闭
func WithContext(ctx context.Context) Option {
	return func(a *App) {
		if ctx != nil {
			a.parent = ctx
		}
	}
}

// WithShutdownTimeout 单个服务器优雅关闭的上限，默认 30s
func WithShutdownTimeout(d time.Duration) Option {
	return func(a *App) {
		if d > 0 {
			a.shutdownTimeout = d
		}
	}
}

// WithCloseTimeout 单个关闭函数的上限，默认 10s
func WithCloseTimeout(d time.Duration) Option {
	return func(a *App) {
		if d > 0 {
			a.closeTimeout = d
		}
	}
}

func WithSignals(signals ...os.Signal) Option {
	return func(a *App) {
		if len(signals) > 0 {
			a.signals = signals
		}
	}
}

func WithServer(servers ...transport.Server) Option {
	return func(a *App) {
		for _, s := range servers {
			if s != nil {
				a.servers = append(a.servers, s)
			}
		}
	}
}

// WithClose 注册关闭函数，所有服务器停止后按注册逆序执行
func WithClose(name string, fn func(context.Context) error) Option {
	return func(a *App) {
		if fn != nil {
			a.closers = append(a.closers, closer{name: name, fn: fn})
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}
