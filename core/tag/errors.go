package tag

import (
	"errors"
	"fmt"
)

var (
	ErrNotStructPointer = errors.New("tag: target must be a non-nil pointer to struct")
	ErrUnsupportedType  = errors.New("tag: unsupported type")
	ErrInvalidValue     = errors.New("tag: invalid value")
	ErrTooDeep          = errors.New("tag: nesting too deep")
)

// FieldError 指出解析失败的字段
type FieldError struct {
	Path  string
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("tag: field %s default %q: %v", e.Path, e.Value, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
