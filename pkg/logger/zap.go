package logger

import (
	"os"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var errEmptyLogPath = errors.New("logger: log file path is empty")

// ZapConfig 定义基于 zap 与 lumberjack 的日志配置。
type ZapConfig struct {
	// Filepath 表示日志文件路径，为空时输出到标准错误。
	Filepath string
	// Level 表示日志输出等级。
	Level Level
	// MaxSize 表示单个日志文件的最大大小，单位为 MB。
	MaxSize int
	// MaxBackups 表示保留的旧日志文件数量。
	MaxBackups int
	// MaxAge 表示保留旧日志文件的最大天数。
	MaxAge int
	// Compress 表示是否压缩旧日志文件。
	Compress bool
}

// ZapLogger 提供基于 zap 的 Logger 实现。
type ZapLogger struct {
	base *zap.Logger
}

// NewZapLogger 创建一个基于 zap 与 lumberjack 的 Logger 实例。
func NewZapLogger(cfg ZapConfig) (*ZapLogger, error) {
	if cfg.Filepath == "" {
		return nil, errEmptyLogPath
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = 100
	}

	writer := zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.Filepath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	})
	return newZapLogger(writer, cfg.Level), nil
}

// NewConsoleLogger 创建一个输出到标准错误的 Logger 实例。
func NewConsoleLogger(level Level) *ZapLogger {
	return newZapLogger(zapcore.AddSync(os.Stderr), level)
}

func newZapLogger(writer zapcore.WriteSyncer, level Level) *ZapLogger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encoderCfg)

	core := zapcore.NewCore(encoder, writer, toZapLevel(level))
	base := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	return &ZapLogger{base: base}
}

// With 返回附加字段后的 Logger，便于上下文透传。
func (l *ZapLogger) With(fields ...Field) Logger {
	if len(fields) == 0 {
		return l
	}
	return &ZapLogger{base: l.base.With(toZapFields(fields)...)}
}

// Debug 记录调试级日志。
func (l *ZapLogger) Debug(msg string, fields ...Field) {
	l.base.Debug(msg, toZapFields(fields)...)
}

// Info 记录信息级日志。
func (l *ZapLogger) Info(msg string, fields ...Field) {
	l.base.Info(msg, toZapFields(fields)...)
}

// Warn 记录警告级日志。
func (l *ZapLogger) Warn(msg string, fields ...Field) {
	l.base.Warn(msg, toZapFields(fields)...)
}

// Error 记录错误级日志。
func (l *ZapLogger) Error(msg string, fields ...Field) {
	l.base.Error(msg, toZapFields(fields)...)
}

// Sync 刷新缓冲并落盘。
func (l *ZapLogger) Sync() error {
	return l.base.Sync()
}

func toZapLevel(level Level) zapcore.Level {
	switch level {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelInfo:
		return zapcore.InfoLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func toZapFields(fields []Field) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	zapFields := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		if err, ok := f.Value.(error); ok {
			zapFields = append(zapFields, zap.NamedError(f.Key, err))
			continue
		}
		zapFields = append(zapFields, zap.Any(f.Key, f.Value))
	}
	return zapFields
}

var _ Logger = (*ZapLogger)(nil)
