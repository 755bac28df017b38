package service

import (
	"context"

	"github.com/cockroachdb/errors"
)

// TaskFunc 后台任务函数，所属节点停止时 ctx 被取消。
type TaskFunc func(ctx context.Context) error

// Task 表示一个被节点追踪的后台任务。
type Task struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Cancel 主动取消任务。
func (t *Task) Cancel() {
	t.cancel()
}

// Done 返回任务完全退出后关闭的通道。
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// AddTask 注册并启动一个后台任务，仅在节点启动后有效。
// 任务因停止被取消不算失败；任务以错误退出时，若本生命周期的
// 终止信号尚未触发，则以该错误触发信号（首个失败生效）。
func (b *Base) AddTask(fn TaskFunc) (*Task, error) {
	if fn == nil {
		return nil, errors.New("service: task func is nil")
	}
	if b.exitPoint() == nil {
		return nil, ErrNotStarted
	}

	ctx, cancel := context.WithCancel(context.Background())
	t := &Task{cancel: cancel, done: make(chan struct{})}

	b.tasksMu.Lock()
	if b.tasks == nil {
		b.tasks = make(map[*Task]struct{})
	}
	b.tasks[t] = struct{}{}
	b.tasksMu.Unlock()

	go func() {
		defer close(t.done)
		err := fn(ctx)

		b.tasksMu.Lock()
		delete(b.tasks, t)
		b.tasksMu.Unlock()

		if err == nil || ctx.Err() != nil || errors.Is(err, context.Canceled) {
			return
		}
		b.logger().Error("background task failed", field("error", err))
		if exit := b.exitPoint(); exit != nil {
			exit.resolve(err)
		}
	}()
	return t, nil
}

// resetTasks 在新一轮启动前重置任务集合。
func (b *Base) resetTasks() {
	b.tasksMu.Lock()
	b.tasks = make(map[*Task]struct{})
	b.tasksMu.Unlock()
}

// cancelTasks 取消所有仍在运行的后台任务，并等待每个任务
// 确认取消并完全退出后才返回。
func (b *Base) cancelTasks() {
	b.tasksMu.Lock()
	tasks := make([]*Task, 0, len(b.tasks))
	for t := range b.tasks {
		tasks = append(tasks, t)
	}
	b.tasksMu.Unlock()

	for _, t := range tasks {
		t.cancel()
	}
	for _, t := range tasks {
		<-t.done
	}
}
