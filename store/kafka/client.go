// Package kafka 对 segmentio/kafka-go 的轻量封装：一个按消息路由主题的共享 Writer，
// 以及按主题与消费组缓存的 Reader。
package kafka

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"

	"github.com/kochabx/geostego/core/tag"
	"github.com/kochabx/geostego/log"
)

// Client Kafka 客户端
type Client struct {
	cfg      Config
	logger   *log.Logger
	username string
	password string

	dialer *kafka.Dialer
	writer *kafka.Writer

	mu      sync.Mutex
	readers map[readerKey]*kafka.Reader
	closed  bool
}

type readerKey struct {
	topic string
	group string
}

// New 创建客户端，不会立即连接 Broker
func New(cfg *Config, opts ...Option) (*Client, error) {
	if !cfg.Enabled() {
		return nil, ErrEmptyBrokers
	}
	if err := tag.ApplyDefaults(cfg); err != nil {
		return nil, err
	}

	c := &Client{
		cfg:      *cfg,
		logger:   log.G,
		username: cfg.Username,
		password: cfg.Password,
		readers:  make(map[readerKey]*kafka.Reader),
	}
	for _, opt := range opts {
		opt(c)
	}

	var mechanism sasl.Mechanism
	if c.username != "" {
		mechanism = plain.Mechanism{Username: c.username, Password: c.password}
	}
	c.dialer = &kafka.Dialer{Timeout: c.cfg.Timeout, DualStack: true, SASLMechanism: mechanism}
	c.writer = &kafka.Writer{
		Addr:                   kafka.TCP(c.cfg.Brokers...),
		Balancer:               c.cfg.balancer(),
		RequiredAcks:           c.cfg.acks(),
		BatchTimeout:           c.cfg.BatchTimeout,
		AllowAutoTopicCreation: c.cfg.AutoCreate,
		Transport:              &kafka.Transport{DialTimeout: c.cfg.Timeout, SASL: mechanism},
		ErrorLogger:            kafka.LoggerFunc(c.logError),
	}
	return c, nil
}

func (c *Client) logError(format string, args ...any) {
	c.logger.Error().Str("component", "kafka").Msgf(format, args...)
}

// Publish 同步写入一条消息
func (c *Client) Publish(ctx context.Context, topic string, key, value []byte) error {
	if topic == "" {
		return ErrEmptyTopic
	}
	if c.isClosed() {
		return ErrClosed
	}
	return c.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   key,
		Value: value,
		Time:  time.Now(),
	})
}

// Reader 返回主题的 Reader；group 为空时从 0 号分区读取
func (c *Client) Reader(topic, group string) (*kafka.Reader, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}
	key := readerKey{topic, group}
	if r, ok := c.readers[key]; ok {
		return r, nil
	}

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     c.cfg.Brokers,
		Topic:       topic,
		GroupID:     group,
		Dialer:      c.dialer,
		MinBytes:    c.cfg.MinBytes,
		MaxBytes:    c.cfg.MaxBytes,
		ErrorLogger: kafka.LoggerFunc(c.logError),
	})
	c.readers[key] = r
	return r, nil
}

// Ping 依次拨号 Broker，任一成功即返回
func (c *Client) Ping(ctx context.Context) error {
	var errs []error
	for _, addr := range c.cfg.Brokers {
		conn, err := c.dialer.DialContext(ctx, "tcp", addr)
		if err == nil {
			return conn.Close()
		}
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Close 刷新 Writer 并关闭全部 Reader，可重复调用
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	readers := c.readers
	c.readers = nil
	c.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		errs := []error{c.writer.Close()}
		for _, r := range readers {
			errs = append(errs, r.Close())
		}
		done <- errors.Join(errs...)
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(c.cfg.CloseTimeout):
		c.logger.Warn().Dur("timeout", c.cfg.CloseTimeout).Msg("kafka close timed out")
		return context.DeadlineExceeded
	}
}
