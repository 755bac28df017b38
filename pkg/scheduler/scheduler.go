package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/robfig/cron/v3"

	"github.com/lk2023060901/hestia-go/pkg/conc"
	"github.com/lk2023060901/hestia-go/pkg/logger"
	"github.com/lk2023060901/hestia-go/pkg/service"
)

// Scheduler 基于 cron 的任务调度器，同时也是一个服务节点：
// 内嵌 service.Base 后可直接挂入生命周期协议，由 Start/Stop
// 驱动调度循环的启停。
type Scheduler struct {
	service.Base

	cron   *cron.Cron
	config *Config
	log    logger.Logger
	pool   *conc.Pool[any]

	jobsMu sync.RWMutex
	jobs   map[JobID]*jobEntry
}

// New 创建调度器。
func New(cfg *Config, opts ...Option) (*Scheduler, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, errors.Wrapf(err, "scheduler: invalid timezone %s", cfg.Timezone)
	}

	cronOpts := []cron.Option{
		cron.WithLocation(loc),
	}
	if cfg.WithSeconds {
		cronOpts = append(cronOpts, cron.WithSeconds())
	}

	s := &Scheduler{
		cron:   cron.New(cronOpts...),
		config: cfg,
		log:    logger.Nop(),
		pool:   conc.NewDefaultPool[any](),
		jobs:   make(map[JobID]*jobEntry),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.SetLogger(s.log)
	return s, nil
}

// Option 调度器选项。
type Option func(*Scheduler)

// WithLogger 设置日志记录器。
func WithLogger(l logger.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.log = l
		}
	}
}

// WithPool 设置协程池。
func WithPool(pool *conc.Pool[any]) Option {
	return func(s *Scheduler) {
		if pool != nil {
			s.pool = pool
		}
	}
}

// OnStart 启动调度循环。
func (s *Scheduler) OnStart(_ context.Context) error {
	s.cron.Start()
	s.log.Info("scheduler started")
	return nil
}

// OnStop 停止调度循环并等待正在执行的任务结束，
// 等待时长受生命周期协议的优雅关闭超时约束。
func (s *Scheduler) OnStop(ctx context.Context) error {
	drained := s.cron.Stop()
	s.log.Info("scheduler stopped, draining jobs")

	select {
	case <-drained.Done():
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "scheduler: drain jobs")
	}
}

// AddJob 添加任务。
func (s *Scheduler) AddJob(name, spec string, job Job, opts ...JobOption) (JobID, error) {
	entry := newJobEntry(name, spec, s.config.DefaultJobOptions)
	entry.job = job

	for _, opt := range opts {
		opt(entry)
	}
	return s.addEntry(spec, entry)
}

// AddFunc 添加函数任务。
func (s *Scheduler) AddFunc(name, spec string, fn JobFunc, opts ...JobOption) (JobID, error) {
	entry := newJobEntry(name, spec, s.config.DefaultJobOptions)
	entry.fn = fn

	for _, opt := range opts {
		opt(entry)
	}
	return s.addEntry(spec, entry)
}

func (s *Scheduler) addEntry(spec string, entry *jobEntry) (JobID, error) {
	wrapped := s.wrapJob(entry)

	id, err := s.cron.AddJob(spec, wrapped)
	if err != nil {
		return 0, errors.Wrapf(err, "scheduler: add job %s", entry.name)
	}
	entry.setID(id)

	s.jobsMu.Lock()
	s.jobs[id] = entry
	s.jobsMu.Unlock()

	s.log.Info("job added", fields(
		"job_id", id,
		"job_name", entry.name,
		"spec", spec,
	)...)
	return id, nil
}

// wrapJob 包装任务执行：跳过未结束的上一轮、panic 恢复、
// 重试与统计、日志记录。
func (s *Scheduler) wrapJob(entry *jobEntry) cron.Job {
	return cron.FuncJob(func() {
		if s.config.SkipIfStillRunning && entry.IsRunning() {
			s.log.Debug("job skipped, still running", fields(
				"job_id", entry.ID(),
				"job_name", entry.Name(),
			)...)
			return
		}

		entry.running.Store(true)
		defer entry.running.Store(false)

		entry.markRun()

		startTime := time.Now()
		var jobErr error

		defer func() {
			duration := time.Since(startTime)
			if jobErr != nil {
				entry.failCount.Inc()
				s.log.Error("job failed", fields(
					"job_id", entry.ID(),
					"job_name", entry.Name(),
					"duration", duration,
					"error", jobErr,
				)...)
				return
			}
			s.log.Debug("job completed", fields(
				"job_id", entry.ID(),
				"job_name", entry.Name(),
				"duration", duration,
			)...)
		}()

		if s.config.Recovery {
			defer func() {
				if r := recover(); r != nil {
					jobErr = errors.Newf("scheduler: job panicked: %v", r)
				}
			}()
		}

		executor := newRetryExecutor(entry.options)
		jobErr = executor.Execute(
			entry.run,
			func(attempt int, err error, backoff time.Duration) {
				s.log.Warn("job retry", fields(
					"job_id", entry.ID(),
					"job_name", entry.Name(),
					"attempt", attempt,
					"error", err,
					"backoff", backoff,
				)...)
			},
		)
	})
}

// RemoveJob 移除任务。
func (s *Scheduler) RemoveJob(id JobID) {
	s.cron.Remove(id)

	s.jobsMu.Lock()
	entry, exists := s.jobs[id]
	delete(s.jobs, id)
	s.jobsMu.Unlock()

	if exists {
		s.log.Info("job removed", fields(
			"job_id", id,
			"job_name", entry.name,
		)...)
	}
}

// GetJob 获取任务信息。
func (s *Scheduler) GetJob(id JobID) (*JobInfo, bool) {
	s.jobsMu.RLock()
	entry, exists := s.jobs[id]
	s.jobsMu.RUnlock()

	if !exists {
		return nil, false
	}
	return entry.info(s.cron.Entry(id).Next), true
}

// ListJobs 列出所有任务。
func (s *Scheduler) ListJobs() []*JobInfo {
	s.jobsMu.RLock()
	defer s.jobsMu.RUnlock()

	jobs := make([]*JobInfo, 0, len(s.jobs))
	for id, entry := range s.jobs {
		jobs = append(jobs, entry.info(s.cron.Entry(id).Next))
	}
	return jobs
}

// RunNow 立即在协程池中执行任务，不影响原有调度。
func (s *Scheduler) RunNow(id JobID) error {
	s.jobsMu.RLock()
	entry, exists := s.jobs[id]
	s.jobsMu.RUnlock()

	if !exists {
		return errors.Newf("scheduler: job %d not found", id)
	}

	s.pool.Submit(func() (any, error) {
		s.wrapJob(entry).Run()
		return nil, nil
	})
	return nil
}

// Release 释放调度器持有的协程池资源。
func (s *Scheduler) Release() {
	s.pool.Release()
}
