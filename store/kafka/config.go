package kafka

import (
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// Config Kafka 客户端配置，Brokers 为空表示不启用
type Config struct {
	Brokers  []string `json:"brokers"`
	Username string   `json:"username"`
	Password string   `json:"password"`

	// Balancer 分区策略：least_bytes、hash、round_robin
	Balancer     string        `json:"balancer" default:"hash"`
	RequiredAcks int           `json:"requiredAcks" default:"1"` // -1 全部副本，0 不等待
	BatchTimeout time.Duration `json:"batchTimeout" default:"50ms"`
	AutoCreate   bool          `json:"autoCreate"`

	Timeout      time.Duration `json:"timeout" default:"3s"`
	CloseTimeout time.Duration `json:"closeTimeout" default:"5s"`

	// 消费端
	MinBytes int `json:"minBytes" default:"1"`
	MaxBytes int `json:"maxBytes" default:"1048576"`
}

// Enabled 是否配置了 Broker
func (c *Config) Enabled() bool {
	return c != nil && len(c.Brokers) > 0
}

func (c *Config) balancer() kafka.Balancer {
	switch strings.ToLower(c.Balancer) {
	case "least_bytes":
		return &kafka.LeastBytes{}
	case "round_robin":
		return &kafka.RoundRobin{}
	default:
		return &kafka.Hash{}
	}
}

func (c *Config) acks() kafka.RequiredAcks {
	switch {
	case c.RequiredAcks < 0:
		return kafka.RequireAll
	case c.RequiredAcks == 0:
		return kafka.RequireNone
	default:
		return kafka.RequireOne
	}
}
