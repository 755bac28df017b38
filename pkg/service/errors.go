package service

import "github.com/cockroachdb/errors"

var (
	// ErrShutdownTimeout 实际停机流程超出优雅关闭超时上限。
	ErrShutdownTimeout = errors.New("service: graceful shutdown timeout")

	// ErrNotStarted 服务尚未启动。
	ErrNotStarted = errors.New("service: not started")
)
