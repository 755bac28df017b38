package logger

// Nop 返回一个不会输出任何日志的 Logger。
func Nop() Logger {
	return nop
}

type nopLogger struct{}

func (nopLogger) With(_ ...Field) Logger {
	return nop
}

func (nopLogger) Debug(_ string, _ ...Field) {}

func (nopLogger) Info(_ string, _ ...Field) {}

func (nopLogger) Warn(_ string, _ ...Field) {}

func (nopLogger) Error(_ string, _ ...Field) {}

func (nopLogger) Sync() error {
	return nil
}

var nop Logger = nopLogger{}
