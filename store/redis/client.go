package redis

import (
	"context"
	"runtime"
	"strings"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"

	"github.com/kochabx/geostego/log"
)

// Client Redis 客户端（单机/集群/哨兵）
type Client struct {
	client redis.UniversalClient
	config *Config
	logger *log.Logger
	hooks  []redis.Hook
}

// New 根据配置创建客户端并 Ping 一次
func New(ctx context.Context, cfg *Config, opts ...Option) (*Client, error) {
	if err := cfg.normalize(); err != nil {
		return nil, err
	}

	c := &Client{config: cfg, logger: log.G}
	for _, opt := range opts {
		opt(c)
	}
	c.client = redis.NewUniversalClient(universalOptions(cfg))

	if err := c.instrument(); err != nil {
		_ = c.client.Close()
		return nil, err
	}
	if err := c.Ping(ctx); err != nil {
		_ = c.client.Close()
		return nil, err
	}

	c.logger.Debug().Str("mode", c.mode()).Strs("addrs", cfg.Addrs).Msg("redis client created")
	return c, nil
}

func universalOptions(cfg *Config) *redis.UniversalOptions {
	poolSize := cfg.PoolSize
	if poolSize == 0 {
		poolSize = 10 * runtime.GOMAXPROCS(0)
	}

	return &redis.UniversalOptions{
		Addrs:      cfg.Addrs,
		MasterName: cfg.MasterName,
		Username:   cfg.Username,
		Password:   cfg.Password,
		DB:         cfg.DB,
		Protocol:   cfg.Protocol,

		DialTimeout:  ms(cfg.DialTimeout),
		ReadTimeout:  ms(cfg.ReadTimeout),
		WriteTimeout: ms(cfg.WriteTimeout),

		PoolSize:        poolSize,
		MinIdleConns:    cfg.MinIdleConns,
		ConnMaxIdleTime: ms(cfg.MaxIdleTime),
		PoolTimeout:     ms(cfg.PoolTimeout),
		MaxRetries:      cfg.MaxRetries,
	}
}

func (c *Client) instrument() error {
	in := c.config.Instrument
	if in.Tracing {
		if err := redisotel.InstrumentTracing(c.client); err != nil {
			return err
		}
	}
	if in.Metrics {
		if err := redisotel.InstrumentMetrics(c.client); err != nil {
			return err
		}
	}
	if in.Debug {
		c.client.AddHook(&commandLogger{logger: c.logger, slow: in.SlowThreshold})
	}
	for _, h := range c.hooks {
		c.client.AddHook(h)
	}
	return nil
}

// UniversalClient 底层客户端
func (c *Client) UniversalClient() redis.UniversalClient {
	return c.client
}

// Key 以配置前缀拼接业务 key，各段以冒号分隔
func (c *Client) Key(parts ...string) string {
	return c.config.KeyPrefix + strings.Join(parts, ":")
}

func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Client) Close() error {
	err := c.client.Close()
	c.logger.Debug().Msg("redis client closed")
	return err
}

func (c *Client) mode() string {
	switch {
	case c.config.IsSentinel():
		return "sentinel"
	case c.config.IsCluster():
		return "cluster"
	default:
		return "single"
	}
}
