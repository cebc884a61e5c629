package validator

import (
	"errors"
	"strings"
)

// FieldError 单个字段的校验失败
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// Errors 一次校验的全部失败字段
type Errors []FieldError

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Message
	}
	return strings.Join(msgs, "; ")
}

// Details 字段名到消息的映射，非校验错误返回 nil
func Details(err error) map[string]string {
	var ve Errors
	if !errors.As(err, &ve) {
		return nil
	}
	out := make(map[string]string, len(ve))
	for _, fe := range ve {
		out[fe.Field] = fe.Message
	}
	return out
}

// List 非校验错误返回 nil
func List(err error) []FieldError {
	var ve Errors
	if !errors.As(err, &ve) {
		return nil
	}
	return ve
}

func IsValidationError(err error) bool {
	var ve Errors
	return errors.As(err, &ve)
}
