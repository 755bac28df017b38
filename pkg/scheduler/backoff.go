package scheduler

import (
	"math"
	"time"
)

// Backoff 退避计算器接口。
type Backoff interface {
	// Next 计算下一次退避时间，attempt 从 1 开始。
	Next(attempt int) time.Duration
}

// NewBackoff 根据策略创建退避计算器。
func NewBackoff(opts JobOptions) Backoff {
	switch opts.BackoffStrategy {
	case BackoffFixed:
		return &fixedBackoff{interval: opts.InitialBackoff}
	case BackoffExponential:
		return &exponentialBackoff{
			initial:    opts.InitialBackoff,
			max:        opts.MaxBackoff,
			multiplier: opts.BackoffMultiplier,
		}
	default:
		return noBackoff{}
	}
}

type noBackoff struct{}

func (noBackoff) Next(_ int) time.Duration {
	return 0
}

// fixedBackoff 固定间隔退避。
type fixedBackoff struct {
	interval time.Duration
}

func (b *fixedBackoff) Next(_ int) time.Duration {
	return b.interval
}

// exponentialBackoff 指数退避。
type exponentialBackoff struct {
	initial    time.Duration
	max        time.Duration
	multiplier float64
}

func (b *exponentialBackoff) Next(attempt int) time.Duration {
	if attempt <= 0 {
		return b.initial
	}

	// initial * multiplier^(attempt-1)，不超过 max。
	backoff := float64(b.initial) * math.Pow(b.multiplier, float64(attempt-1))
	if backoff > float64(b.max) {
		return b.max
	}
	return time.Duration(backoff)
}

// retryExecutor 带重试的执行器。
type retryExecutor struct {
	options JobOptions
	backoff Backoff
}

func newRetryExecutor(opts JobOptions) *retryExecutor {
	return &retryExecutor{
		options: opts,
		backoff: NewBackoff(opts),
	}
}

// Execute 执行函数，失败时按策略重试，每次重试前调用 onRetry。
func (r *retryExecutor) Execute(fn func() error, onRetry func(attempt int, err error, backoff time.Duration)) error {
	if r.options.MaxRetries <= 0 || r.options.BackoffStrategy == BackoffNone {
		return fn()
	}

	var lastErr error
	for attempt := 0; attempt <= r.options.MaxRetries; attempt++ {
		if attempt > 0 {
			backoffDuration := r.backoff.Next(attempt)
			if onRetry != nil {
				onRetry(attempt, lastErr, backoffDuration)
			}
			if backoffDuration > 0 {
				time.Sleep(backoffDuration)
			}
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
	}
	return lastErr
}
