package service

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/kochabx/geostego/log"
)

// Purger 删除早于 before 的审计记录，*GormAuditSink 满足该接口
type Purger interface {
	Purge(ctx context.Context, before time.Time) (int64, error)
}

// Sweeper 定时清理残留输出与过期审计记录
type Sweeper struct {
	cron      *cron.Cron
	images    ImageStore
	audit     Purger
	locations *MemoryLocationStore
	outputTTL time.Duration
	retention time.Duration
	logger    *log.Logger
	now       func() time.Time
}

// SweeperOption Sweeper 选项
type SweeperOption func(*Sweeper)

// WithAuditPurger 清理审计记录，retention 为保留时长
func WithAuditPurger(p Purger, retention time.Duration) SweeperOption {
	return func(s *Sweeper) {
		s.audit = p
		s.retention = retention
	}
}

// WithMemoryLocations 清理进程内位置存储中的过期条目
func WithMemoryLocations(m *MemoryLocationStore) SweeperOption {
	return func(s *Sweeper) { s.locations = m }
}

// WithSweeperLogger 设置日志记录器
func WithSweeperLogger(l *log.Logger) SweeperOption {
	return func(s *Sweeper) { s.logger = l }
}

// NewSweeper 按 schedule（cron 表达式或 @every 描述）运行清理
func NewSweeper(schedule string, images ImageStore, outputTTL time.Duration, opts ...SweeperOption) (*Sweeper, error) {
	s := &Sweeper{
		cron:      cron.New(),
		images:    images,
		outputTTL: outputTTL,
		logger:    log.G,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if _, err := s.cron.AddFunc(schedule, func() { s.Sweep(context.Background()) }); err != nil {
		return nil, err
	}
	return s, nil
}

// Start 启动定时任务
func (s *Sweeper) Start() {
	s.cron.Start()
}

// Stop 停止定时任务并等待正在执行的清理结束
func (s *Sweeper) Stop(ctx context.Context) error {
	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SweepResult 单次清理结果
type SweepResult struct {
	Images    int
	Audits    int64
	Locations int
}

// Sweep 执行一次清理，单项失败只记录日志
func (s *Sweeper) Sweep(ctx context.Context) SweepResult {
	var res SweepResult
	now := s.now()

	if s.images != nil && s.outputTTL > 0 {
		n, err := s.images.Sweep(ctx, now.Add(-s.outputTTL))
		if err != nil {
			s.logger.Warn().Err(err).Msg("output sweep failed")
		}
		res.Images = n
	}

	if s.audit != nil && s.retention > 0 {
		n, err := s.audit.Purge(ctx, now.Add(-s.retention))
		if err != nil {
			s.logger.Warn().Err(err).Msg("audit purge failed")
		}
		res.Audits = n
	}

	if s.locations != nil {
		res.Locations = s.locations.Purge()
	}

	s.logger.Debug().
		Int("images", res.Images).
		Int64("audits", res.Audits).
		Int("locations", res.Locations).
		Msg("sweep finished")
	return res
}
