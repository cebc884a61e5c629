package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/goccy/go-json"

	"github.com/kochabx/geostego/log"
	"github.com/kochabx/geostego/store/db"
)

// 审计操作
const (
	OpStoreLocation = "store_location"
	OpEncode        = "encode"
	OpDecode        = "decode"
)

// 审计结果
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// AuditRecord 一次请求的审计记录，不含密钥、消息、关键词与坐标
type AuditRecord struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	Op        string    `json:"op" gorm:"size:32;index"`
	Outcome   string    `json:"outcome" gorm:"size:16"`
	Code      int       `json:"code"`
	Session   string    `json:"session" gorm:"size:16;index"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

// TableName gorm 表名
func (AuditRecord) TableName() string {
	return "audit_records"
}

// SessionFingerprint 会话令牌的短摘要，审计中不保存令牌原文
func SessionFingerprint(session string) string {
	if session == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(session))
	return hex.EncodeToString(sum[:8])
}

// AuditSink 审计记录输出
type AuditSink interface {
	Record(ctx context.Context, rec AuditRecord) error
}

// NopAuditSink 丢弃所有记录
type NopAuditSink struct{}

func (NopAuditSink) Record(context.Context, AuditRecord) error { return nil }

// GormAuditSink 写入数据库
type GormAuditSink struct {
	client *db.Client
}

// NewGormAuditSink 创建数据库审计输出并迁移表结构
func NewGormAuditSink(ctx context.Context, client *db.Client) (*GormAuditSink, error) {
	if err := client.Migrate(ctx, &AuditRecord{}); err != nil {
		return nil, err
	}
	return &GormAuditSink{client: client}, nil
}

func (s *GormAuditSink) Record(ctx context.Context, rec AuditRecord) error {
	return s.client.DB().WithContext(ctx).Create(&rec).Error
}

// Purge 删除早于 before 的记录
func (s *GormAuditSink) Purge(ctx context.Context, before time.Time) (int64, error) {
	res := s.client.DB().WithContext(ctx).Where("created_at < ?", before).Delete(&AuditRecord{})
	return res.RowsAffected, res.Error
}

// Publisher 消息发布，*kafka.Client 满足该接口
type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// KafkaAuditSink 以 JSON 发布到 Kafka
type KafkaAuditSink struct {
	publisher Publisher
	topic     string
}

// NewKafkaAuditSink 创建 Kafka 审计输出
func NewKafkaAuditSink(p Publisher, topic string) *KafkaAuditSink {
	return &KafkaAuditSink{publisher: p, topic: topic}
}

func (s *KafkaAuditSink) Record(ctx context.Context, rec AuditRecord) error {
	value, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.publisher.Publish(ctx, s.topic, []byte(rec.ID), value)
}

// MultiAuditSink 依次写入多个输出，失败只记录日志
type MultiAuditSink struct {
	sinks  []AuditSink
	logger *log.Logger
}

// NewMultiAuditSink 组合多个输出，忽略 nil
func NewMultiAuditSink(logger *log.Logger, sinks ...AuditSink) *MultiAuditSink {
	m := &MultiAuditSink{logger: logger}
	if m.logger == nil {
		m.logger = log.G
	}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

// Len 输出数量
func (m *MultiAuditSink) Len() int {
	return len(m.sinks)
}

func (m *MultiAuditSink) Record(ctx context.Context, rec AuditRecord) error {
	for _, s := range m.sinks {
		if err := s.Record(ctx, rec); err != nil {
			m.logger.Warn().Err(err).
				Str("audit_id", rec.ID).
				Str("op", rec.Op).
				Msg("audit record dropped")
		}
	}
	return nil
}

var (
	_ AuditSink = NopAuditSink{}
	_ AuditSink = (*GormAuditSink)(nil)
	_ AuditSink = (*KafkaAuditSink)(nil)
	_ AuditSink = (*MultiAuditSink)(nil)
)
