// Package db 基于 gorm 的关系型数据库客户端，支持 MySQL、PostgreSQL 与 SQLite。
package db

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/kochabx/geostego/core/tag"
	"github.com/kochabx/geostego/log"
)

// Client 数据库客户端
type Client struct {
	mu     sync.RWMutex
	db     *gorm.DB
	sqlDB  *sql.DB
	driver Driver
}

// New 按 cfg 选择驱动连接，并在 connectTimeout 内完成 Ping
func New(cfg *Config, opts ...Option) (*Client, error) {
	if !cfg.Enabled() {
		return nil, ErrInvalidConfig
	}
	if err := tag.ApplyDefaults(cfg); err != nil {
		return nil, err
	}
	dialect, err := cfg.Dialect()
	if err != nil {
		return nil, err
	}
	if err := tag.ApplyDefaults(dialect); err != nil {
		return nil, err
	}

	o := options{logger: log.G, connectTimeout: 10 * time.Second}
	for _, opt := range opts {
		opt(&o)
	}

	gdb, err := gorm.Open(dialect.Dialector(), &gorm.Config{
		Logger: &gormLogger{log: o.logger, level: parseLevel(cfg.Level), slow: cfg.SlowQuery},
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}

	pool := cfg.Pool
	if dialect.Driver() == DriverSQLite {
		pool.MaxOpenConns = 1
		pool.MaxIdleConns = 1
	}
	sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(pool.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(pool.ConnMaxIdleTime)

	c := &Client{db: gdb, sqlDB: sqlDB, driver: dialect.Driver()}

	ctx, cancel := context.WithTimeout(context.Background(), o.connectTimeout)
	defer cancel()
	if err := c.Ping(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}

	o.logger.Info().Str("driver", string(c.driver)).Msg("database connected")
	return c, nil
}

// DB 返回 gorm 实例，关闭后为 nil
func (c *Client) DB() *gorm.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}

// Driver 当前驱动
func (c *Client) Driver() Driver {
	return c.driver
}

// Migrate 自动迁移表结构
func (c *Client) Migrate(ctx context.Context, models ...any) error {
	db := c.DB()
	if db == nil {
		return ErrClosed
	}
	return db.WithContext(ctx).AutoMigrate(models...)
}

func (c *Client) Ping(ctx context.Context) error {
	c.mu.RLock()
	sqlDB := c.sqlDB
	c.mu.RUnlock()

	if sqlDB == nil {
		return ErrClosed
	}
	return sqlDB.PingContext(ctx)
}

// Close 可重复调用
func (c *Client) Close() error {
	c.mu.Lock()
	sqlDB := c.sqlDB
	c.sqlDB, c.db = nil, nil
	c.mu.Unlock()

	if sqlDB == nil {
		return nil
	}
	return sqlDB.Close()
}
