package conc

import (
	"context"
	"runtime"

	"github.com/cockroachdb/errors"
	"github.com/panjf2000/ants/v2"
)

// DefaultPoolSizeMultiplier 默认协程池容量为 CPU 核数的倍数。
const DefaultPoolSizeMultiplier = 256

// Pool 基于 ants 的泛型协程池。
type Pool[T any] struct {
	pool *ants.Pool
}

// NewPool 创建指定容量的协程池。
func NewPool[T any](size int, opts ...ants.Option) (*Pool[T], error) {
	if size <= 0 {
		return nil, errors.New("conc: pool size must be positive")
	}
	p, err := ants.NewPool(size, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "conc: create pool")
	}
	return &Pool[T]{pool: p}, nil
}

// NewDefaultPool 创建默认容量的协程池。
func NewDefaultPool[T any]() *Pool[T] {
	p, err := NewPool[T](runtime.NumCPU() * DefaultPoolSizeMultiplier)
	if err != nil {
		// 默认容量恒为正数，此处不可能失败。
		panic(err)
	}
	return p
}

// Submit 提交任务并返回承载其结果的 Future。
// 池已关闭或已满时，错误直接写入返回的 Future。
func (p *Pool[T]) Submit(fn func() (T, error)) *Future[T] {
	f := newFuture[T]()
	if err := p.pool.Submit(func() {
		f.set(fn())
	}); err != nil {
		var zero T
		f.set(zero, errors.Wrap(err, "conc: submit"))
	}
	return f
}

// Running 返回正在执行任务的协程数。
func (p *Pool[T]) Running() int {
	return p.pool.Running()
}

// Free 返回池中空闲的协程数。
func (p *Pool[T]) Free() int {
	return p.pool.Free()
}

// Release 关闭协程池并释放资源。
func (p *Pool[T]) Release() {
	p.pool.Release()
}

// Future 表示一次异步执行的结果。
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

func (f *Future[T]) set(val T, err error) {
	f.val = val
	f.err = err
	close(f.done)
}

// Get 阻塞等待结果，或在上下文取消时提前返回。
func (f *Future[T]) Get(ctx context.Context) (T, error) {
	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case <-f.done:
		return f.val, f.err
	}
}

// Done 返回结果就绪后关闭的通道。
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}
