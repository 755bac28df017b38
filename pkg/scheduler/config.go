package scheduler

import "time"

// Config 调度器配置。
type Config struct {
	// Timezone 时区，默认 Asia/Shanghai。
	Timezone string `yaml:"timezone"`

	// WithSeconds 是否启用秒级精度（6 位表达式），默认 false。
	WithSeconds bool `yaml:"with_seconds"`

	// SkipIfStillRunning 如果上次执行未完成则跳过，默认 true。
	SkipIfStillRunning bool `yaml:"skip_if_still_running"`

	// Recovery 启用 panic 恢复，默认 true。
	Recovery bool `yaml:"recovery"`

	// DefaultJobOptions 默认任务选项，可被单个任务覆盖。
	DefaultJobOptions JobOptions `yaml:"default_job_options"`
}

// BackoffStrategy 退避策略。
type BackoffStrategy string

const (
	// BackoffNone 不重试。
	BackoffNone BackoffStrategy = "none"
	// BackoffFixed 固定间隔重试。
	BackoffFixed BackoffStrategy = "fixed"
	// BackoffExponential 指数退避重试。
	BackoffExponential BackoffStrategy = "exponential"
)

// JobOptions 任务选项。
type JobOptions struct {
	// MaxRetries 失败重试次数，0 表示不重试。
	MaxRetries int `yaml:"max_retries"`

	// BackoffStrategy 退避策略。
	BackoffStrategy BackoffStrategy `yaml:"backoff_strategy"`

	// InitialBackoff 初始退避时间。
	InitialBackoff time.Duration `yaml:"initial_backoff"`

	// MaxBackoff 最大退避时间。
	MaxBackoff time.Duration `yaml:"max_backoff"`

	// BackoffMultiplier 退避乘数，仅 exponential 有效。
	BackoffMultiplier float64 `yaml:"backoff_multiplier"`
}

// DefaultConfig 返回默认配置。
func DefaultConfig() *Config {
	return &Config{
		Timezone:           "Asia/Shanghai",
		WithSeconds:        false,
		SkipIfStillRunning: true,
		Recovery:           true,
		DefaultJobOptions:  DefaultJobOptions(),
	}
}

// DefaultJobOptions 返回默认任务选项。
func DefaultJobOptions() JobOptions {
	return JobOptions{
		MaxRetries:        3,
		BackoffStrategy:   BackoffExponential,
		InitialBackoff:    time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
	}
}
