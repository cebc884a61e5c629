package service

import (
	"time"

	"github.com/kochabx/geostego/collab/comments"
	"github.com/kochabx/geostego/collab/fetch"
	"github.com/kochabx/geostego/log"
	"github.com/kochabx/geostego/store/db"
	"github.com/kochabx/geostego/store/kafka"
	"github.com/kochabx/geostego/store/oss/minio"
	"github.com/kochabx/geostego/store/redis"
)

// Config 服务配置
type Config struct {
	Server    ServerConfig    `json:"server"`
	Stego     StegoConfig     `json:"stego"`
	Pool      PoolConfig      `json:"pool"`
	Fetch     fetch.Config    `json:"fetch"`
	Comments  comments.Config `json:"comments"`
	Keyword   KeywordConfig   `json:"keyword"`
	Redis     redis.Config    `json:"redis"`
	RateLimit RateLimitConfig `json:"rate_limit"`
	Database  db.Config       `json:"database"`
	Audit     AuditConfig     `json:"audit"`
	Kafka     *kafka.Config   `json:"kafka"`
	Minio     minio.Config    `json:"minio"`
	Output    OutputConfig    `json:"output"`
	Sweeper   SweeperConfig   `json:"sweeper"`
	Log       LogConfig       `json:"log"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Host         string `json:"host" default:"0.0.0.0"`
	Port         int    `json:"port" default:"10000" validate:"min=1,max=65535"`
	BodyLimit    int64  `json:"body_limit" default:"33554432"` // 字节
	Metrics      bool   `json:"metrics" default:"true"`
	AllowOrigins string `json:"allow_origins" default:"*"`
}

// StegoConfig 编解码配置
type StegoConfig struct {
	Suite          string        `json:"suite" default:"aes-256-gcm" validate:"oneof=aes-256-gcm chacha20-poly1305"`
	VerifyLocation bool          `json:"verify_location" default:"true"`
	LocationTTL    time.Duration `json:"location_ttl" default:"24h"`
}

// PoolConfig 协程池配置
type PoolConfig struct {
	Size        int `json:"size" default:"8"`
	MaxBlocking int `json:"max_blocking" default:"64"`
}

// KeywordConfig 关键词匹配配置
type KeywordConfig struct {
	Threshold float64 `json:"threshold" default:"0.4" validate:"gte=0,lte=1"`
}

// RateLimitConfig 限流配置，需要 Redis
type RateLimitConfig struct {
	Enabled   bool          `json:"enabled"`
	Algorithm string        `json:"algorithm" default:"sliding_window" validate:"oneof=sliding_window token_bucket"`
	Window    time.Duration `json:"window" default:"1m"`
	Limit     int           `json:"limit" default:"60"`
	// 令牌桶参数
	Burst int `json:"burst" default:"20"`
	Rate  int `json:"rate" default:"1"`
}

// AuditConfig 审计配置
type AuditConfig struct {
	Topic     string        `json:"topic" default:"geostego.audit"`
	Retention time.Duration `json:"retention" default:"720h"`
}

// OutputConfig 编码输出配置
type OutputConfig struct {
	Dir    string `json:"dir"`
	Prefix string `json:"prefix" default:"encoded/"`
}

// SweeperConfig 定时清理配置
type SweeperConfig struct {
	Schedule  string        `json:"schedule" default:"@every 10m"`
	OutputTTL time.Duration `json:"output_ttl" default:"1h"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string         `json:"level" default:"info" validate:"oneof=debug info warn error"`
	Output string         `json:"output" default:"console" validate:"oneof=console multi"`
	File   log.FileConfig `json:"file"`
}
