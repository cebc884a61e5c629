// Package errors 带 HTTP 状态码的结构化错误。
//
// *Error 不可变：WithMetadata 与 WithCause 返回副本，包级变量可以安全地作为
// 哨兵错误使用。errors.Is 按 Code 与 Message 比较。
package errors

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// UnknownCode 非 *Error 错误对应的状态码
const UnknownCode = 500

// Error 结构化错误
type Error struct {
	Code     int               `json:"code"`
	Message  string            `json:"message"`
	Metadata map[string]string `json:"metadata,omitempty"`
	cause    error
}

// New 创建错误，args 为空时 format 原样作为消息
func New(code int, format string, args ...any) *Error {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return &Error{Code: code, Message: msg}
}

// Wrap 以 err 为原因创建错误，err 为 nil 时返回 nil
func Wrap(err error, code int, format string, args ...any) *Error {
	if err == nil {
		return nil
	}
	return New(code, format, args...).WithCause(err)
}

// FromError 取错误链中的第一个 *Error，没有时包装为 UnknownCode
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if As(err, &e) {
		return e
	}
	return New(UnknownCode, "%v", err).WithCause(err)
}

// Code 返回错误码，nil 为 0
func Code(err error) int {
	if err == nil {
		return 0
	}
	return FromError(err).Code
}

// Error 形如 code=404, message=not found, metadata={k=v}, cause=...，metadata 按键排序
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("code=")
	b.WriteString(strconv.Itoa(e.Code))
	b.WriteString(", message=")
	b.WriteString(e.Message)

	if len(e.Metadata) > 0 {
		b.WriteString(", metadata={")
		for i, k := range slices.Sorted(maps.Keys(e.Metadata)) {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(k)
			b.WriteByte('=')
			b.WriteString(e.Metadata[k])
		}
		b.WriteByte('}')
	}

	if e.cause != nil {
		b.WriteString(", cause=")
		b.WriteString(e.cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is 同码同消息视为同一错误
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e.Code == t.Code && e.Message == t.Message
}

// WithMetadata 返回合并了 m 的副本
func (e *Error) WithMetadata(m map[string]string) *Error {
	if len(m) == 0 {
		return e
	}
	c := e.clone()
	if c.Metadata == nil {
		c.Metadata = make(map[string]string, len(m))
	}
	maps.Copy(c.Metadata, m)
	return c
}

// WithCause 返回带原因的副本
func (e *Error) WithCause(cause error) *Error {
	if cause == nil {
		return e
	}
	c := e.clone()
	c.cause = cause
	return c
}

func (e *Error) GetCode() int {
	return e.Code
}

func (e *Error) GetMessage() string {
	return e.Message
}

// GetMetadata 返回 metadata 的副本
func (e *Error) GetMetadata() map[string]string {
	if len(e.Metadata) == 0 {
		return nil
	}
	return maps.Clone(e.Metadata)
}

func (e *Error) GetCause() error {
	return e.cause
}

func (e *Error) clone() *Error {
	return &Error{
		Code:     e.Code,
		Message:  e.Message,
		Metadata: maps.Clone(e.Metadata),
		cause:    e.cause,
	}
}
