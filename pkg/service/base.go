package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/lk2023060901/hestia-go/pkg/logger"
)

// Base 提供 Service 的基础实现与节点状态，供业务服务内嵌。
// 零值即可用，无需构造函数。
type Base struct {
	// startMu 与 stopMu 分别守护启动与停止两个状态迁移。
	// dependents 仅在持有启动门锁时递增、持有停止门锁时递减，
	// 两把锁互不排斥，因此计数本身必须是原子的。
	startMu    sync.Mutex
	stopMu     sync.Mutex
	dependents atomic.Int32

	running atomic.Bool

	// mu 守护 exit 与 log：后台任务完成回调需要在不触碰
	// 门锁的情况下读取终止信号。
	mu   sync.Mutex
	exit *exitPoint
	log  logger.Logger

	tasksMu sync.Mutex
	tasks   map[*Task]struct{}
}

func (b *Base) node() *Base { return b }

// OnStart 默认启动钩子，空实现。
func (b *Base) OnStart(_ context.Context) error { return nil }

// OnStop 默认停止钩子，空实现。
func (b *Base) OnStop(_ context.Context) error { return nil }

// Dependencies 默认无依赖。
func (b *Base) Dependencies() []Group { return nil }

// GracefulShutdownTimeout 默认优雅关闭超时时间。
func (b *Base) GracefulShutdownTimeout() time.Duration {
	return DefaultGracefulShutdownTimeout
}

// Running 返回节点当前是否处于运行状态。
func (b *Base) Running() bool {
	return b.running.Load()
}

// SetLogger 设置节点使用的日志记录器，通常在启动前调用。
func (b *Base) SetLogger(l logger.Logger) {
	b.mu.Lock()
	b.log = l
	b.mu.Unlock()
}

func (b *Base) logger() logger.Logger {
	b.mu.Lock()
	l := b.log
	b.mu.Unlock()
	if l == nil {
		return logger.Nop()
	}
	return l
}

// ensureExitPoint 在一个生命周期开始时创建终止信号，已存在则复用。
func (b *Base) ensureExitPoint() *exitPoint {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.exit == nil {
		b.exit = newExitPoint()
	}
	return b.exit
}

// attachExitPoint 由编排器调用，把父节点的终止信号下传到依赖节点，
// 使依赖树深处的后台任务失败能触达根节点的等待者。
func (b *Base) attachExitPoint(exit *exitPoint) {
	b.mu.Lock()
	b.exit = exit
	b.mu.Unlock()
}

func (b *Base) exitPoint() *exitPoint {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.exit
}

func (b *Base) clearExitPoint() {
	b.mu.Lock()
	b.exit = nil
	b.mu.Unlock()
}
