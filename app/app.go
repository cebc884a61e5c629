// Package app 管理服务器与资源的生命周期：启动全部服务器，等待信号、Stop 或首个服务器错误，
// 随后关闭服务器并按注册逆序释放资源。
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kochabx/geostego/log"
	"github.com/kochabx/geostego/transport"
)

var (
	ErrAlreadyStarted = errors.New("app: already started")
	ErrClosePanic     = errors.New("app: close function panicked")
)

// App 只能 Start 一次
type App struct {
	parent context.Context
	ctx    context.Context
	cancel context.CancelFunc

	servers []transport.Server
	closers []closer
	signals []os.Signal
	logger  *log.Logger

	shutdownTimeout time.Duration
	closeTimeout    time.Duration

	started atomic.Bool
}

type closer struct {
	name string
	fn   func(context.Context) error
}

func New(opts ...Option) *App {
	a := &App{
		parent:          context.Background(),
		signals:         []os.Signal{os.Interrupt, syscall.SIGTERM},
		logger:          log.G,
		shutdownTimeout: 30 * time.Second,
		closeTimeout:    10 * time.Second,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.ctx, a.cancel = context.WithCancel(a.parent)
	return a
}

// Start 阻塞到关闭完成。因信号、Stop 或父上下文结束而退出时返回 nil
func (a *App) Start() error {
	if !a.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	ctx, stop := signal.NotifyContext(a.ctx, a.signals...)
	defer stop()

	eg, ctx := errgroup.WithContext(ctx)
	for _, s := range a.servers {
		eg.Go(s.Run)
		eg.Go(func() error {
			<-ctx.Done()
			sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.shutdownTimeout)
			defer cancel()
			return s.Shutdown(sctx)
		})
	}
	eg.Go(func() error {
		<-ctx.Done()
		a.logger.Info().Int("servers", len(a.servers)).Msg("shutting down")
		return nil
	})

	err := eg.Wait()
	a.release()

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Stop 触发关闭，可在 Start 之前调用
func (a *App) Stop() {
	a.cancel()
}

func (a *App) release() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.runCloser(a.closers[i])
	}
}

func (a *App) runCloser(c closer) (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), a.closeTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("%w: %v", ErrClosePanic, r)
			}
		}()
		done <- c.fn(ctx)
	}()

	select {
	case err = <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil {
		a.logger.Error().Err(err).Str("close", c.name).Msg("close failed")
	}
	return err
}
