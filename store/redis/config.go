package redis

import (
	"time"

	"github.com/kochabx/geostego/core/tag"
)

// Config Redis 配置（单机/集群/哨兵）
type Config struct {
	// Addrs 地址列表
	// 单机: ["localhost:6379"]
	// 集群: ["node1:6379", "node2:6379"]
	// 哨兵: ["sentinel1:26379"]，同时设置 MasterName
	Addrs      []string `json:"addrs"`
	MasterName string   `json:"master_name"`
	Username   string   `json:"username"`
	Password   string   `json:"password"`
	DB         int      `json:"db"`
	Protocol   int      `json:"protocol" default:"3"`

	// 超时，单位毫秒
	DialTimeout  int64 `json:"dial_timeout" default:"5000"`
	ReadTimeout  int64 `json:"read_timeout" default:"3000"`
	WriteTimeout int64 `json:"write_timeout" default:"3000"`
	PoolTimeout  int64 `json:"pool_timeout" default:"4000"`
	MaxIdleTime  int64 `json:"max_idle_time" default:"300000"`

	// PoolSize 0 表示 10 * GOMAXPROCS
	PoolSize     int `json:"pool_size"`
	MinIdleConns int `json:"min_idle_conns"`
	MaxRetries   int `json:"max_retries"`

	// KeyPrefix 业务 key 前缀
	KeyPrefix string `json:"key_prefix" default:"geostego:"`

	Instrument InstrumentConfig `json:"instrument"`
}

// InstrumentConfig 命令观测。Tracing 与 Metrics 走 OpenTelemetry 全局 Provider
type InstrumentConfig struct {
	Tracing bool `json:"tracing"`
	Metrics bool `json:"metrics"`
	// Debug 记录每条命令名，超过 SlowThreshold 的记为 warn
	Debug         bool          `json:"debug"`
	SlowThreshold time.Duration `json:"slow_threshold" default:"100ms"`
}

// Enabled 是否配置了地址
func (c *Config) Enabled() bool {
	return c != nil && len(c.Addrs) > 0
}

// Single 单机配置
func Single(addr string) *Config {
	return &Config{Addrs: []string{addr}}
}

// normalize 填充默认值并校验
func (c *Config) normalize() error {
	if !c.Enabled() {
		return ErrNoAddrs
	}
	if err := tag.ApplyDefaults(c); err != nil {
		return err
	}
	for _, v := range []int64{c.DialTimeout, c.ReadTimeout, c.WriteTimeout, c.PoolTimeout} {
		if v < 0 {
			return ErrNegativeTimeout
		}
	}
	return nil
}

// IsSentinel 哨兵模式
func (c *Config) IsSentinel() bool {
	return c.MasterName != ""
}

// IsCluster 集群模式
func (c *Config) IsCluster() bool {
	return len(c.Addrs) > 1 && c.MasterName == ""
}

func ms(v int64) time.Duration {
	return time.Duration(v) * time.Millisecond
}
