package scheduler

import (
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/atomic"
)

// JobID 任务唯一标识。
type JobID = cron.EntryID

// Job 任务接口。
type Job interface {
	// Run 执行任务，返回错误用于判断是否重试。
	Run() error
	// Name 返回任务名称。
	Name() string
}

// JobFunc 函数类型任务。
type JobFunc func() error

// JobInfo 任务信息快照。
type JobInfo struct {
	// ID 任务唯一标识。
	ID JobID

	// Name 任务名称。
	Name string

	// Spec Cron 表达式。
	Spec string

	// LastRun 上次执行时间。
	LastRun time.Time

	// NextRun 下次执行时间。
	NextRun time.Time

	// RunCount 执行次数。
	RunCount int64

	// FailCount 失败次数。
	FailCount int64

	// Running 是否正在执行。
	Running bool
}

// jobEntry 内部任务条目。
type jobEntry struct {
	name    string
	spec    string
	job     Job
	fn      JobFunc
	options JobOptions

	mu      sync.Mutex
	id      JobID
	lastRun time.Time

	runCount  atomic.Int64
	failCount atomic.Int64
	running   atomic.Bool
}

func newJobEntry(name, spec string, options JobOptions) *jobEntry {
	return &jobEntry{
		name:    name,
		spec:    spec,
		options: options,
	}
}

// run 执行任务本体。
func (e *jobEntry) run() error {
	if e.job != nil {
		return e.job.Run()
	}
	if e.fn != nil {
		return e.fn()
	}
	return nil
}

// markRun 记录一次执行。
func (e *jobEntry) markRun() {
	e.runCount.Inc()
	e.mu.Lock()
	e.lastRun = time.Now()
	e.mu.Unlock()
}

// Name 返回任务名称。
func (e *jobEntry) Name() string {
	return e.name
}

// IsRunning 返回是否正在执行。
func (e *jobEntry) IsRunning() bool {
	return e.running.Load()
}

func (e *jobEntry) setID(id JobID) {
	e.mu.Lock()
	e.id = id
	e.mu.Unlock()
}

// ID 返回任务 ID。
func (e *jobEntry) ID() JobID {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.id
}

// info 生成任务信息快照。
func (e *jobEntry) info(nextRun time.Time) *JobInfo {
	e.mu.Lock()
	id, lastRun := e.id, e.lastRun
	e.mu.Unlock()

	return &JobInfo{
		ID:        id,
		Name:      e.name,
		Spec:      e.spec,
		LastRun:   lastRun,
		NextRun:   nextRun,
		RunCount:  e.runCount.Load(),
		FailCount: e.failCount.Load(),
		Running:   e.running.Load(),
	}
}

// JobOption 任务选项函数。
type JobOption func(*jobEntry)

// WithMaxRetries 设置最大重试次数。
func WithMaxRetries(n int) JobOption {
	return func(e *jobEntry) {
		e.options.MaxRetries = n
	}
}

// WithBackoffStrategy 设置退避策略。
func WithBackoffStrategy(strategy BackoffStrategy) JobOption {
	return func(e *jobEntry) {
		e.options.BackoffStrategy = strategy
	}
}

// WithInitialBackoff 设置初始退避时间。
func WithInitialBackoff(d time.Duration) JobOption {
	return func(e *jobEntry) {
		e.options.InitialBackoff = d
	}
}

// WithMaxBackoff 设置最大退避时间。
func WithMaxBackoff(d time.Duration) JobOption {
	return func(e *jobEntry) {
		e.options.MaxBackoff = d
	}
}

// WithBackoffMultiplier 设置退避乘数。
func WithBackoffMultiplier(m float64) JobOption {
	return func(e *jobEntry) {
		e.options.BackoffMultiplier = m
	}
}

// WithNoRetry 禁用重试。
func WithNoRetry() JobOption {
	return func(e *jobEntry) {
		e.options.MaxRetries = 0
		e.options.BackoffStrategy = BackoffNone
	}
}
