package ticker

import (
	"context"
	"time"

	"go.uber.org/atomic"

	"github.com/lk2023060901/hestia-go/pkg/service"
)

// Handler 定时回调函数。
type Handler func()

// Ticker 周期执行回调的后台服务：启动时注册一个被追踪的
// 后台任务驱动定时循环，服务停止时任务随之被取消。
type Ticker struct {
	service.Base

	interval time.Duration
	handler  Handler
	ticks    atomic.Int64
}

// New 创建定时服务，间隔非正时使用 1 秒。
func New(interval time.Duration, handler Handler) *Ticker {
	if interval <= 0 {
		interval = time.Second
	}
	return &Ticker{
		interval: interval,
		handler:  handler,
	}
}

// OnStart 注册定时循环任务。
func (t *Ticker) OnStart(_ context.Context) error {
	_, err := t.AddTask(t.loop)
	return err
}

func (t *Ticker) loop(ctx context.Context) error {
	tk := time.NewTicker(t.interval)
	defer tk.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tk.C:
			t.ticks.Inc()
			if t.handler != nil {
				t.handler()
			}
		}
	}
}

// Interval 返回间隔时间。
func (t *Ticker) Interval() time.Duration {
	return t.interval
}

// Ticks 返回已触发的回调次数。
func (t *Ticker) Ticks() int64 {
	return t.ticks.Load()
}
