// Package log 基于 zerolog 的结构化日志。
//
// 支持控制台、轮转文件或两者同时输出，并可在写出前按规则脱敏。
// 包级函数写入全局实例 G。
package log

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"

	"github.com/kochabx/geostego/core/tag"
	"github.com/kochabx/geostego/log/desensitize"
	"github.com/kochabx/geostego/log/writer"
)

// FileConfig 文件输出配置
type FileConfig = writer.FileConfig

// Logger 日志记录器
type Logger struct {
	zerolog.Logger
	hook   *desensitize.Hook
	closer io.Closer
}

func init() {
	zerolog.TimeFieldFormat = time.DateTime
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
}

func build(w io.Writer, closer io.Closer, opts []Option) *Logger {
	o := options{level: zerolog.TraceLevel}
	for _, opt := range opts {
		opt(&o)
	}

	if o.hook != nil {
		w = desensitize.NewWriter(w, o.hook)
	}

	ctx := zerolog.New(w).Level(o.level).With().Timestamp()
	if o.caller {
		ctx = ctx.Caller()
	}
	if len(o.fields) > 0 {
		ctx = ctx.Fields(o.fields)
	}

	return &Logger{Logger: ctx.Logger(), hook: o.hook, closer: closer}
}

// New 输出到控制台
func New(opts ...Option) *Logger {
	return build(writer.Console(nil), nil, opts)
}

// NewWriter 以 JSON 行输出到 w
func NewWriter(w io.Writer, opts ...Option) *Logger {
	return build(w, nil, opts)
}

// NewFile 输出到轮转文件，使用后需 Close
func NewFile(c FileConfig, opts ...Option) (*Logger, error) {
	fw, err := openFile(c)
	if err != nil {
		return nil, err
	}
	return build(fw, fw, opts), nil
}

// NewMulti 同时输出到轮转文件与控制台
func NewMulti(c FileConfig, opts ...Option) (*Logger, error) {
	fw, err := openFile(c)
	if err != nil {
		return nil, err
	}
	return build(zerolog.MultiLevelWriter(fw, writer.Console(nil)), fw, opts), nil
}

func openFile(c FileConfig) (io.WriteCloser, error) {
	if err := tag.ApplyDefaults(&c); err != nil {
		return nil, fmt.Errorf("log: %w", err)
	}
	return writer.File(c)
}

// Hook 返回脱敏规则集，未设置时为 nil
func (l *Logger) Hook() *desensitize.Hook {
	return l.hook
}

// Close 关闭文件输出
func (l *Logger) Close() error {
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

// ParseLevel 解析 debug/info/warn/error，无法识别时为 info
func ParseLevel(s string) zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}
