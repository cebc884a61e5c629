package minio

import (
	"errors"
	"fmt"
)

var (
	ErrNoEndpoint = errors.New("minio: no endpoint configured")
	ErrEmptyKey   = errors.New("minio: empty object key")
)

// OpError 带桶与对象名的操作错误
type OpError struct {
	Op     string
	Bucket string
	Key    string
	Err    error
}

func (e *OpError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("minio %s %s: %v", e.Op, e.Bucket, e.Err)
	}
	return fmt.Sprintf("minio %s %s/%s: %v", e.Op, e.Bucket, e.Key, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }
