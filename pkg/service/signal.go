package service

import (
	"context"
	"sync"
)

// exitPoint 是一次生命周期内的单次写入终止信号：
// 首个 resolve 生效，后续写入被丢弃。
type exitPoint struct {
	once sync.Once
	done chan struct{}
	err  error
}

func newExitPoint() *exitPoint {
	return &exitPoint{done: make(chan struct{})}
}

// resolve 触发信号，err 为 nil 表示正常终止。
func (p *exitPoint) resolve(err error) {
	p.once.Do(func() {
		p.err = err
		close(p.done)
	})
}

// wait 阻塞直到信号触发或上下文取消。
func (p *exitPoint) wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.done:
		return p.err
	}
}
