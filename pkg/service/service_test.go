package service

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

var errBoom = errors.New("boom")

// simpleService 记录启动/停止状态。
type simpleService struct {
	Base
	started bool
	stopped bool
}

func (s *simpleService) OnStart(_ context.Context) error {
	s.started = true
	return nil
}

func (s *simpleService) OnStop(_ context.Context) error {
	s.stopped = true
	return nil
}

// brokenService 启动恒定失败。
type brokenService struct {
	Base
	delay   time.Duration
	stopped bool
}

func (s *brokenService) OnStart(_ context.Context) error {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return errBoom
}

func (s *brokenService) OnStop(_ context.Context) error {
	s.stopped = true
	return nil
}

// rootService 携带可配置的依赖分组。
type rootService struct {
	simpleService
	deps []Group
}

func (r *rootService) Dependencies() []Group {
	return r.deps
}

func TestSingleState(t *testing.T) {
	svc := &simpleService{}

	err := With(context.Background(), svc, func(_ context.Context) error {
		assert.True(t, svc.started)
		assert.False(t, svc.stopped)
		assert.True(t, svc.Running())
		return nil
	})
	require.NoError(t, err)
	assert.True(t, svc.stopped)
	assert.False(t, svc.Running())
}

func TestStartFailed(t *testing.T) {
	svc := &brokenService{}
	assert.False(t, svc.Running())

	err := Run(context.Background(), svc)
	require.ErrorIs(t, err, errBoom)
	assert.False(t, svc.stopped)
	assert.False(t, svc.Running())
}

func TestStartFailedLater(t *testing.T) {
	valid := &simpleService{}
	broken := &brokenService{}
	root := &rootService{deps: []Group{{valid}, {broken}}}

	err := Run(context.Background(), root)
	require.ErrorIs(t, err, errBoom)

	assert.True(t, valid.started)
	assert.True(t, valid.stopped)
	assert.False(t, valid.Running())
	assert.False(t, root.Running())
}

func TestStartFailedEarlier(t *testing.T) {
	valid := &simpleService{}
	broken := &brokenService{}
	root := &rootService{deps: []Group{{broken}, {valid}}}

	err := Run(context.Background(), root)
	require.ErrorIs(t, err, errBoom)

	assert.False(t, valid.started)
	assert.False(t, valid.stopped)
	assert.False(t, valid.Running())
}

func TestStartFailedParallel(t *testing.T) {
	valid := &simpleService{}
	broken := &brokenService{delay: 20 * time.Millisecond}
	root := &rootService{deps: []Group{{broken, valid}}}

	err := Run(context.Background(), root)
	require.ErrorIs(t, err, errBoom)

	// 并行分组中一个成员失败，另一个成员先完成启动、随后被回滚。
	assert.True(t, valid.started)
	assert.True(t, valid.stopped)
	assert.False(t, valid.Running())
}

// statsService 记录启动/停止次数与全局先后顺序。
type statsService struct {
	Base
	seq        *atomic.Int64
	startCount int
	stopCount  int
	startSeq   int64
	stopSeq    int64
}

func (s *statsService) OnStart(_ context.Context) error {
	s.startCount++
	s.startSeq = s.seq.Inc()
	return nil
}

func (s *statsService) OnStop(_ context.Context) error {
	s.stopCount++
	s.stopSeq = s.seq.Inc()
	return nil
}

type diamondMid struct {
	statsService
	c Service
}

func (d *diamondMid) Dependencies() []Group {
	return []Group{{d.c}}
}

type diamondRoot struct {
	statsService
	b1 *diamondMid
	b2 *diamondMid
	c  *statsService
}

func newDiamondRoot(seq *atomic.Int64) *diamondRoot {
	c := &statsService{seq: seq}
	r := &diamondRoot{
		b1: &diamondMid{statsService: statsService{seq: seq}, c: c},
		b2: &diamondMid{statsService: statsService{seq: seq}, c: c},
		c:  c,
	}
	r.seq = seq
	return r
}

func (r *diamondRoot) Dependencies() []Group {
	return []Group{{r.b1}, {r.b2}}
}

func TestDiamondDependencies(t *testing.T) {
	root := newDiamondRoot(atomic.NewInt64(0))

	err := With(context.Background(), root, func(_ context.Context) error {
		assert.True(t, root.Running())
		assert.True(t, root.b1.Running())
		assert.True(t, root.b2.Running())
		assert.True(t, root.c.Running())
		return nil
	})
	require.NoError(t, err)

	// 共享依赖只真正启动/停止一次。
	assert.Equal(t, 1, root.c.startCount)
	assert.Equal(t, 1, root.c.stopCount)

	// 启动顺序 C < B1 < B2 < A，停止顺序严格相反。
	assert.Less(t, root.c.startSeq, root.b1.startSeq)
	assert.Less(t, root.b1.startSeq, root.b2.startSeq)
	assert.Less(t, root.b2.startSeq, root.startSeq)

	assert.Less(t, root.stopSeq, root.b2.stopSeq)
	assert.Less(t, root.b2.stopSeq, root.b1.stopSeq)
	assert.Less(t, root.b1.stopSeq, root.c.stopSeq)
}

func TestSharedDependencyIsolation(t *testing.T) {
	root := newDiamondRoot(atomic.NewInt64(0))
	ctx := context.Background()

	err := With(ctx, root, func(ctx context.Context) error {
		// 无关的持有者释放后，共享依赖必须继续运行。
		extra := &diamondMid{statsService: statsService{seq: root.seq}, c: root.c}
		if err := With(ctx, extra, func(_ context.Context) error { return nil }); err != nil {
			return err
		}
		assert.True(t, root.c.Running())
		return nil
	})
	require.NoError(t, err)
	assert.False(t, root.c.Running())
}

// taskService 启动时注册一个等待取消的后台任务。
type taskService struct {
	Base
	cancelled atomic.Int32
}

func (s *taskService) OnStart(_ context.Context) error {
	_, err := s.AddTask(func(ctx context.Context) error {
		<-ctx.Done()
		s.cancelled.Inc()
		return ctx.Err()
	})
	return err
}

func TestTaskCancellation(t *testing.T) {
	svc := &taskService{}

	err := With(context.Background(), svc, func(_ context.Context) error {
		return nil
	})
	require.NoError(t, err)

	// 停止完成前任务必须确认取消并退出，且只取消一次。
	assert.Equal(t, int32(1), svc.cancelled.Load())
}

// failingTaskService 启动时注册一个立即失败的后台任务。
type failingTaskService struct {
	Base
}

func (s *failingTaskService) OnStart(_ context.Context) error {
	_, err := s.AddTask(func(_ context.Context) error {
		return errBoom
	})
	return err
}

func TestTaskFailurePropagation(t *testing.T) {
	svc := &failingTaskService{}

	err := Run(context.Background(), svc)
	require.ErrorIs(t, err, errBoom)

	err = With(context.Background(), svc, func(ctx context.Context) error {
		return Wait(ctx, svc)
	})
	require.ErrorIs(t, err, errBoom)
}

// countingService 统计钩子调用次数。
type countingService struct {
	Base
	startCalled int
	stopCalled  int
	fail        bool
}

func (s *countingService) OnStart(_ context.Context) error {
	s.startCalled++
	if s.fail {
		return errBoom
	}
	return nil
}

func (s *countingService) OnStop(_ context.Context) error {
	s.stopCalled++
	return nil
}

type countingRoot struct {
	countingService
	dep *countingService
}

func (r *countingRoot) Dependencies() []Group {
	return []Group{{r.dep}}
}

func TestDependencyStartFailureSkipsOwnHooks(t *testing.T) {
	root := &countingRoot{dep: &countingService{fail: true}}

	err := With(context.Background(), root, func(_ context.Context) error {
		return nil
	})
	require.ErrorIs(t, err, errBoom)

	assert.Equal(t, 0, root.startCalled)
	assert.Equal(t, 0, root.stopCalled)
	assert.Equal(t, 1, root.dep.startCalled)
	assert.Equal(t, 0, root.dep.stopCalled)
}

func TestParallelGroup(t *testing.T) {
	seq := atomic.NewInt64(0)
	members := []*statsService{
		{seq: seq}, {seq: seq}, {seq: seq},
	}
	group := make(Group, 0, len(members))
	for _, m := range members {
		group = append(group, m)
	}
	root := &rootService{deps: []Group{group}}

	err := Run(context.Background(), root)
	require.NoError(t, err)

	for _, m := range members {
		assert.Equal(t, 1, m.startCount)
		assert.Equal(t, 1, m.stopCount)
	}
}

// emptyService 未覆盖任何钩子。
type emptyService struct {
	Base
}

func TestEmptyDefaults(t *testing.T) {
	svc := &emptyService{}

	err := With(context.Background(), svc, func(_ context.Context) error {
		assert.True(t, svc.Running())
		return nil
	})
	require.NoError(t, err)
	assert.False(t, svc.Running())
}

// slowStopService 停止钩子不响应取消。
type slowStopService struct {
	Base
	hang time.Duration
}

func (s *slowStopService) OnStop(_ context.Context) error {
	time.Sleep(s.hang)
	return nil
}

func (s *slowStopService) GracefulShutdownTimeout() time.Duration {
	return 50 * time.Millisecond
}

func TestShutdownTimeout(t *testing.T) {
	svc := &slowStopService{hang: 500 * time.Millisecond}
	ctx := context.Background()

	require.NoError(t, Start(ctx, svc))

	err := Stop(ctx, svc)
	require.ErrorIs(t, err, ErrShutdownTimeout)

	// 超时的节点不能再被观察为运行中。
	assert.False(t, svc.Running())
}

func TestAddTaskBeforeStart(t *testing.T) {
	svc := &emptyService{}

	_, err := svc.AddTask(func(_ context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrNotStarted)
}

func TestWaitBeforeStart(t *testing.T) {
	svc := &emptyService{}

	err := Wait(context.Background(), svc)
	assert.ErrorIs(t, err, ErrNotStarted)
}

func TestStopWithoutStart(t *testing.T) {
	svc := &simpleService{}

	require.NoError(t, Stop(context.Background(), svc))
	assert.False(t, svc.stopped)

	// 多余的 Stop 不会让后续生命周期失衡。
	err := With(context.Background(), svc, func(_ context.Context) error {
		assert.True(t, svc.Running())
		return nil
	})
	require.NoError(t, err)
	assert.True(t, svc.stopped)
}

func TestWaitUnblocksOnStop(t *testing.T) {
	svc := &simpleService{}
	ctx := context.Background()

	require.NoError(t, Start(ctx, svc))

	waitCh := make(chan error, 1)
	go func() {
		waitCh <- Wait(context.Background(), svc)
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, Stop(ctx, svc))

	select {
	case err := <-waitCh:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Wait() did not return after Stop()")
	}
}
