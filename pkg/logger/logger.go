package logger

// Level 表示日志等级。
type Level int

const (
	// LevelDebug 表示调试级日志。
	LevelDebug Level = iota
	// LevelInfo 表示信息级日志。
	LevelInfo
	// LevelWarn 表示警告级日志。
	LevelWarn
	// LevelError 表示错误级日志。
	LevelError
)

// Field 表示结构化日志字段。
type Field struct {
	Key   string
	Value any
}

// Logger 定义统一的结构化日志接口。
type Logger interface {
	// With 返回附加字段后的 Logger，便于上下文透传。
	With(fields ...Field) Logger

	// Debug 记录调试级日志。
	Debug(msg string, fields ...Field)
	// Info 记录信息级日志。
	Info(msg string, fields ...Field)
	// Warn 记录警告级日志。
	Warn(msg string, fields ...Field)
	// Error 记录错误级日志。
	Error(msg string, fields ...Field)

	// Sync 刷新缓冲并落盘（若实现需要）。
	Sync() error
}
