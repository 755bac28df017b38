package service

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// startDependencies 按声明顺序逐组启动依赖：组间串行，组内并行。
// 组内任一成员失败时取消同组仍在启动的成员，等待全部结束后返回
// 首个失败；更早已完成分组的回滚由调用方负责。
func startDependencies(ctx context.Context, s Service) error {
	n := s.node()
	n.resetTasks()
	exit := n.exitPoint()

	for _, group := range s.Dependencies() {
		if len(group) == 0 {
			continue
		}
		g, gctx := errgroup.WithContext(ctx)
		for _, dep := range group {
			dep := dep
			dep.node().attachExitPoint(exit)
			g.Go(func() error {
				return Start(gctx, dep)
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}
	return nil
}

// stopDependencies 先取消并等待本节点全部后台任务退出，
// 再按声明顺序的逆序逐组停止依赖。停止过程尽力执行到底：
// 组内成员的失败不取消同组其余成员，某一组失败也不会跳过
// 其余分组，最终返回首个失败。
func stopDependencies(ctx context.Context, s Service) error {
	n := s.node()
	n.cancelTasks()

	groups := s.Dependencies()
	var firstErr error
	for i := len(groups) - 1; i >= 0; i-- {
		group := groups[i]
		if len(group) == 0 {
			continue
		}
		var g errgroup.Group
		for _, dep := range group {
			dep := dep
			g.Go(func() error {
				return Stop(ctx, dep)
			})
		}
		if err := g.Wait(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
