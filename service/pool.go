package service

import (
	"context"

	"github.com/panjf2000/ants/v2"

	"github.com/kochabx/geostego/errors"
)

// ErrOverloaded 协程池已满
var ErrOverloaded = errors.New(503, "service overloaded")

// Pool 限制 CPU 密集任务的并发度
type Pool struct {
	pool *ants.Pool
}

// NewPool size 为最大并发数，maxBlocking 为最大排队数（0 不限）
func NewPool(size, maxBlocking int) (*Pool, error) {
	if size <= 0 {
		size = ants.DefaultAntsPoolSize
	}
	p, err := ants.NewPool(size, ants.WithMaxBlockingTasks(maxBlocking))
	if err != nil {
		return nil, err
	}
	return &Pool{pool: p}, nil
}

// Waiting 排队中的任务数
func (p *Pool) Waiting() int {
	return p.pool.Waiting()
}

// Do 在池中执行 fn 并等待结果；ctx 取消时立即返回，fn 仍会执行完毕
func Do[T any](ctx context.Context, p *Pool, fn func() (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	err := p.pool.Submit(func() {
		v, err := fn()
		ch <- result{v, err}
	})
	if err == ants.ErrPoolOverload {
		return zero, ErrOverloaded
	}
	if err != nil {
		return zero, err
	}

	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Close 释放协程池
func (p *Pool) Close() {
	p.pool.Release()
}
