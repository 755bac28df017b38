package service

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
)

// DefaultGracefulShutdownTimeout 默认优雅关闭超时时间。
const DefaultGracefulShutdownTimeout = 10 * time.Second

// Group 表示一组依赖服务，组内成员并行启动、并行停止。
type Group []Service

// Service 定义参与生命周期协议的服务节点。
// 业务服务通过内嵌 Base 获得默认实现，按需覆盖钩子方法。
type Service interface {
	// OnStart 启动钩子，在所有依赖分组启动完成后执行。
	OnStart(ctx context.Context) error

	// OnStop 停止钩子，在任何依赖分组开始停止前执行。
	OnStop(ctx context.Context) error

	// Dependencies 返回按启动顺序排列的依赖分组，停止时逆序。
	Dependencies() []Group

	// GracefulShutdownTimeout 返回本节点实际停机流程的超时上限。
	GracefulShutdownTimeout() time.Duration

	// node 返回节点内部状态，由内嵌的 Base 提供。
	node() *Base
}

// Start 启动服务：增加依赖引用计数；若节点尚未运行，
// 依次启动依赖分组并执行启动钩子，失败时回滚已启动的依赖。
// 对已运行节点的重复 Start 仅累加计数后立即返回。
func Start(ctx context.Context, s Service) error {
	n := s.node()
	n.startMu.Lock()
	defer n.startMu.Unlock()

	n.dependents.Inc()
	if n.running.Load() {
		return nil
	}
	n.ensureExitPoint()

	err := startDependencies(ctx, s)
	if err == nil {
		err = s.OnStart(ctx)
	}
	if err != nil {
		// 回滚，原始错误优先，回滚错误作为附加信息保留。
		// 回滚不受触发失败的那次取消影响，剥离上游取消信号。
		if rbErr := stopDependencies(context.WithoutCancel(ctx), s); rbErr != nil {
			err = errors.CombineErrors(err, rbErr)
		}
		n.logger().Warn("service start failed", field("error", err))
		return err
	}

	n.running.Store(true)
	n.logger().Debug("service started")
	return nil
}

// Stop 停止服务：减少依赖引用计数；仅当计数归零且节点在运行时
// 执行实际停机流程，流程整体受 GracefulShutdownTimeout 约束。
func Stop(ctx context.Context, s Service) error {
	n := s.node()
	n.stopMu.Lock()
	defer n.stopMu.Unlock()

	// 没有匹配 Start 的多余 Stop 不把计数减成负数。
	if n.dependents.Load() == 0 {
		return nil
	}
	if n.dependents.Dec() != 0 || !n.running.Load() {
		return nil
	}

	timeout := s.GracefulShutdownTimeout()
	if timeout <= 0 {
		timeout = DefaultGracefulShutdownTimeout
	}
	sctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- shutdown(sctx, s)
	}()

	select {
	case err := <-done:
		n.clearExitPoint()
		if err != nil {
			n.logger().Warn("service stop failed", field("error", err))
			return err
		}
		n.logger().Debug("service stopped")
		return nil
	case <-sctx.Done():
		if errors.Is(sctx.Err(), context.DeadlineExceeded) {
			n.logger().Error("service shutdown timeout", field("timeout", timeout))
			return errors.Wrapf(ErrShutdownTimeout, "after %s", timeout)
		}
		return sctx.Err()
	}
}

// shutdown 执行实际停机流程：先翻转运行标记并唤醒等待者，
// 再执行停止钩子；无论钩子是否失败都会继续取消后台任务并
// 逆序停止依赖分组，钩子的原始错误优先保留。
func shutdown(ctx context.Context, s Service) error {
	n := s.node()
	n.running.Store(false)
	if exit := n.exitPoint(); exit != nil {
		exit.resolve(nil)
	}

	err := s.OnStop(ctx)
	if depErr := stopDependencies(ctx, s); depErr != nil {
		err = errors.CombineErrors(err, depErr)
	}
	return err
}

// Wait 阻塞直到服务的终止信号被触发；信号携带失败时返回该失败。
// 对未启动的服务返回 ErrNotStarted。
func Wait(ctx context.Context, s Service) error {
	exit := s.node().exitPoint()
	if exit == nil {
		return ErrNotStarted
	}
	return exit.wait(ctx)
}

// With 在服务的运行范围内执行 fn：进入时启动，退出时无条件停止。
// fn 的错误优先于停止阶段的错误返回。
func With(ctx context.Context, s Service, fn func(ctx context.Context) error) error {
	if err := Start(ctx, s); err != nil {
		return err
	}
	err := fn(ctx)
	stopErr := Stop(context.WithoutCancel(ctx), s)
	if err != nil {
		return err
	}
	return stopErr
}

// Run 启动服务并阻塞等待终止信号，退出时保证停止服务。
func Run(ctx context.Context, s Service) error {
	return With(ctx, s, func(ctx context.Context) error {
		return Wait(ctx, s)
	})
}
