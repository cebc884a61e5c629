package minio

import (
	"errors"
	"time"

	"github.com/kochabx/geostego/core/tag"
)

// Config 对象存储配置，Endpoint 为空表示不启用
type Config struct {
	Endpoint        string `json:"endpoint"`
	AccessKeyID     string `json:"accessKeyId"`
	SecretAccessKey string `json:"secretAccessKey"`
	UseSSL          bool   `json:"useSSL"`
	Region          string `json:"region"`

	// Bucket 客户端绑定的桶
	Bucket         string        `json:"bucket" default:"geostego"`
	RequestTimeout time.Duration `json:"requestTimeout" default:"30s"`
	// PresignExpiry 上限 7 天
	PresignExpiry time.Duration `json:"presignExpiry" default:"1h"`
}

// Enabled 是否配置了对象存储
func (c *Config) Enabled() bool {
	return c != nil && c.Endpoint != ""
}

func (c *Config) normalize() error {
	if !c.Enabled() {
		return ErrNoEndpoint
	}
	if err := tag.ApplyDefaults(c); err != nil {
		return err
	}
	switch {
	case c.AccessKeyID == "" || c.SecretAccessKey == "":
		return errors.New("minio: missing credentials")
	case c.RequestTimeout <= 0:
		return errors.New("minio: request timeout must be positive")
	case c.PresignExpiry <= 0 || c.PresignExpiry > 7*24*time.Hour:
		return errors.New("minio: presign expiry must be within 7 days")
	}
	return nil
}
