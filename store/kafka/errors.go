package kafka

import "errors"

var (
	ErrClosed       = errors.New("kafka: client closed")
	ErrEmptyBrokers = errors.New("kafka: no brokers configured")
	ErrEmptyTopic   = errors.New("kafka: empty topic")
)
