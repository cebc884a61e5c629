package db

import "errors"

var (
	ErrUnsupportedDriver = errors.New("db: unsupported driver")
	ErrInvalidConfig     = errors.New("db: invalid config")
	ErrClosed            = errors.New("db: client closed")
)
