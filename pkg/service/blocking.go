package service

import (
	"sync"

	"github.com/cockroachdb/errors"
)

// BlockingGroup 表示一组依赖服务，纯同步变体中组内成员按声明顺序
// 依次启动与停止。
type BlockingGroup []BlockingService

// BlockingService 定义纯同步变体的服务节点，与 Service 共享同一套
// 引用计数与回滚语义，但没有后台任务、终止信号与停机超时。
type BlockingService interface {
	// OnStart 启动钩子。
	OnStart() error

	// OnStop 停止钩子。
	OnStop() error

	// Dependencies 返回按启动顺序排列的依赖分组，停止时逆序。
	Dependencies() []BlockingGroup

	// bnode 返回节点内部状态，由内嵌的 BlockingBase 提供。
	bnode() *BlockingBase
}

// BlockingBase 提供 BlockingService 的基础实现与节点状态。
// 零值即可用。
type BlockingBase struct {
	mu         sync.Mutex
	running    bool
	dependents int
}

func (b *BlockingBase) bnode() *BlockingBase { return b }

// OnStart 默认启动钩子，空实现。
func (b *BlockingBase) OnStart() error { return nil }

// OnStop 默认停止钩子，空实现。
func (b *BlockingBase) OnStop() error { return nil }

// Dependencies 默认无依赖。
func (b *BlockingBase) Dependencies() []BlockingGroup { return nil }

// Running 返回节点当前是否处于运行状态。
func (b *BlockingBase) Running() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.running
}

// StartBlocking 启动服务：增加引用计数；若节点尚未运行，依次启动
// 依赖分组并执行启动钩子，失败时回滚已启动的依赖后返回原始错误。
func StartBlocking(s BlockingService) error {
	n := s.bnode()
	n.mu.Lock()
	defer n.mu.Unlock()

	n.dependents++
	if n.running {
		return nil
	}

	err := startBlockingDependencies(s)
	if err == nil {
		err = s.OnStart()
	}
	if err != nil {
		if rbErr := stopBlockingDependencies(s); rbErr != nil {
			err = errors.CombineErrors(err, rbErr)
		}
		return err
	}

	n.running = true
	return nil
}

// StopBlocking 停止服务：减少引用计数；仅当计数归零且节点在运行时
// 执行停止钩子并逆序停止依赖分组，钩子的原始错误优先保留。
func StopBlocking(s BlockingService) error {
	n := s.bnode()
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.dependents > 0 {
		n.dependents--
	}
	if n.dependents != 0 || !n.running {
		return nil
	}

	n.running = false
	err := s.OnStop()
	if depErr := stopBlockingDependencies(s); depErr != nil {
		err = errors.CombineErrors(err, depErr)
	}
	return err
}

// WithBlocking 在服务的运行范围内执行 fn：进入时启动，退出时无条件
// 停止。fn 的错误优先于停止阶段的错误返回。
func WithBlocking(s BlockingService, fn func() error) error {
	if err := StartBlocking(s); err != nil {
		return err
	}
	err := fn()
	stopErr := StopBlocking(s)
	if err != nil {
		return err
	}
	return stopErr
}

func startBlockingDependencies(s BlockingService) error {
	for _, group := range s.Dependencies() {
		for _, dep := range group {
			if err := StartBlocking(dep); err != nil {
				return err
			}
		}
	}
	return nil
}

func stopBlockingDependencies(s BlockingService) error {
	groups := s.Dependencies()
	var firstErr error
	for i := len(groups) - 1; i >= 0; i-- {
		for _, dep := range groups[i] {
			if err := StopBlocking(dep); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
