package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/hestia-go/pkg/service"
)

// TestNew 测试创建调度器
func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{
			name:    "nil config uses default",
			config:  nil,
			wantErr: false,
		},
		{
			name: "valid config",
			config: &Config{
				Timezone:    "Asia/Shanghai",
				WithSeconds: true,
			},
			wantErr: false,
		},
		{
			name: "invalid timezone",
			config: &Config{
				Timezone: "Invalid/Timezone",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, s)
			s.Release()
		})
	}
}

// TestAddFunc 测试添加函数任务
func TestAddFunc(t *testing.T) {
	s, err := New(nil)
	require.NoError(t, err)
	defer s.Release()

	id, err := s.AddFunc("test-job", "* * * * *", func() error {
		return nil
	})
	require.NoError(t, err)
	assert.NotZero(t, id)

	job, exists := s.GetJob(id)
	require.True(t, exists)
	assert.Equal(t, "test-job", job.Name)
	assert.Equal(t, "* * * * *", job.Spec)
}

func TestAddFuncInvalidSpec(t *testing.T) {
	s, err := New(nil)
	require.NoError(t, err)
	defer s.Release()

	_, err = s.AddFunc("bad-job", "not a spec", func() error {
		return nil
	})
	assert.Error(t, err)
}

func TestRemoveJob(t *testing.T) {
	s, err := New(nil)
	require.NoError(t, err)
	defer s.Release()

	id, err := s.AddFunc("gone-job", "* * * * *", func() error {
		return nil
	})
	require.NoError(t, err)

	s.RemoveJob(id)
	_, exists := s.GetJob(id)
	assert.False(t, exists)
}

func TestListJobs(t *testing.T) {
	s, err := New(nil)
	require.NoError(t, err)
	defer s.Release()

	_, err = s.AddFunc("a", "* * * * *", func() error { return nil })
	require.NoError(t, err)
	_, err = s.AddFunc("b", "* * * * *", func() error { return nil })
	require.NoError(t, err)

	jobs := s.ListJobs()
	assert.Len(t, jobs, 2)
}

// TestLifecycle 测试调度器作为服务节点的启停
func TestLifecycle(t *testing.T) {
	s, err := New(nil)
	require.NoError(t, err)
	defer s.Release()

	ctx := context.Background()
	require.NoError(t, service.Start(ctx, s))
	assert.True(t, s.Running())

	require.NoError(t, service.Stop(ctx, s))
	assert.False(t, s.Running())
}

// TestRunNow 测试立即执行任务
func TestRunNow(t *testing.T) {
	s, err := New(nil)
	require.NoError(t, err)
	defer s.Release()

	var counter int32
	id, err := s.AddFunc("now-job", "* * * * *", func() error {
		atomic.AddInt32(&counter, 1)
		return nil
	}, WithNoRetry())
	require.NoError(t, err)

	require.NoError(t, s.RunNow(id))

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&counter) == 1
	}, time.Second, 10*time.Millisecond)

	job, exists := s.GetJob(id)
	require.True(t, exists)
	assert.Equal(t, int64(1), job.RunCount)
	assert.Equal(t, int64(0), job.FailCount)
}

func TestRunNowUnknownJob(t *testing.T) {
	s, err := New(nil)
	require.NoError(t, err)
	defer s.Release()

	assert.Error(t, s.RunNow(JobID(12345)))
}

// TestRunNowWithRetry 测试失败任务按策略重试
func TestRunNowWithRetry(t *testing.T) {
	s, err := New(nil)
	require.NoError(t, err)
	defer s.Release()

	errFlaky := errors.New("flaky")
	var attempts int32
	id, err := s.AddFunc("flaky-job", "* * * * *", func() error {
		if atomic.AddInt32(&attempts, 1) < 3 {
			return errFlaky
		}
		return nil
	},
		WithMaxRetries(3),
		WithBackoffStrategy(BackoffFixed),
		WithInitialBackoff(time.Millisecond),
	)
	require.NoError(t, err)

	require.NoError(t, s.RunNow(id))

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&attempts) == 3
	}, time.Second, 10*time.Millisecond)

	job, exists := s.GetJob(id)
	require.True(t, exists)
	// 重试成功后整体不计为失败
	assert.Equal(t, int64(0), job.FailCount)
}

// TestRecovery 测试 panic 恢复
func TestRecovery(t *testing.T) {
	s, err := New(nil)
	require.NoError(t, err)
	defer s.Release()

	id, err := s.AddFunc("panic-job", "* * * * *", func() error {
		panic("kaboom")
	}, WithNoRetry())
	require.NoError(t, err)

	require.NoError(t, s.RunNow(id))

	assert.Eventually(t, func() bool {
		job, exists := s.GetJob(id)
		return exists && job.FailCount == 1
	}, time.Second, 10*time.Millisecond)
}

func TestBackoffStrategies(t *testing.T) {
	fixed := NewBackoff(JobOptions{
		BackoffStrategy: BackoffFixed,
		InitialBackoff:  time.Second,
	})
	assert.Equal(t, time.Second, fixed.Next(1))
	assert.Equal(t, time.Second, fixed.Next(5))

	exp := NewBackoff(JobOptions{
		BackoffStrategy:   BackoffExponential,
		InitialBackoff:    time.Second,
		MaxBackoff:        10 * time.Second,
		BackoffMultiplier: 2.0,
	})
	assert.Equal(t, time.Second, exp.Next(1))
	assert.Equal(t, 2*time.Second, exp.Next(2))
	assert.Equal(t, 4*time.Second, exp.Next(3))
	assert.Equal(t, 10*time.Second, exp.Next(10))

	none := NewBackoff(JobOptions{})
	assert.Equal(t, time.Duration(0), none.Next(1))
}
