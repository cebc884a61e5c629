package redis

import (
	"context"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kochabx/geostego/log"
)

// commandLogger 只记录命令名，参数中含有位置数据
type commandLogger struct {
	logger *log.Logger
	slow   time.Duration
}

func (h *commandLogger) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := next(ctx, network, addr)
		if err != nil {
			h.logger.Error().Err(err).Str("addr", addr).Msg("redis dial failed")
		}
		return conn, err
	}
}

func (h *commandLogger) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		h.log(cmd.FullName(), 1, time.Since(start), err)
		return err
	}
}

func (h *commandLogger) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)
		h.log("pipeline", len(cmds), time.Since(start), err)
		return err
	}
}

func (h *commandLogger) log(name string, n int, d time.Duration, err error) {
	ev := h.logger.Debug()
	msg := "redis command"
	switch {
	case err != nil && !IsNil(err):
		ev, msg = h.logger.Warn().Err(err), "redis command failed"
	case h.slow > 0 && d > h.slow:
		ev, msg = h.logger.Warn(), "slow redis command"
	}
	ev.Str("cmd", name).Int("n", n).Dur("elapsed", d).Msg(msg)
}
