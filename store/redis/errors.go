package redis

import (
	"errors"

	"github.com/redis/go-redis/v9"
)

var (
	ErrNoAddrs         = errors.New("redis: no addrs configured")
	ErrNegativeTimeout = errors.New("redis: negative timeout")
)

// IsNil key 不存在
func IsNil(err error) bool {
	return errors.Is(err, redis.Nil)
}
