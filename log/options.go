package log

import (
	"github.com/rs/zerolog"

	"github.com/kochabx/geostego/log/desensitize"
)

type options struct {
	level  zerolog.Level
	caller bool
	hook   *desensitize.Hook
	fields map[string]any
}

// Option Logger 选项
type Option func(*options)

// WithLevel Logger 自身的最低级别，默认不限制
func WithLevel(level zerolog.Level) Option {
	return func(o *options) { o.level = level }
}

// WithCaller 记录调用位置
func WithCaller() Option {
	return func(o *options) { o.caller = true }
}

// WithDesensitize 写出前按 hook 的规则脱敏
func WithDesensitize(hook *desensitize.Hook) Option {
	return func(o *options) { o.hook = hook }
}

// WithField 每条日志附带的字段
func WithField(key string, value any) Option {
	return func(o *options) {
		if o.fields == nil {
			o.fields = make(map[string]any)
		}
		o.fields[key] = value
	}
}
