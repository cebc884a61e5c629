package log

import "github.com/rs/zerolog"

// G 全局日志实例
var G = New()

// SetGlobalLogger 替换全局实例
func SetGlobalLogger(l *Logger) {
	if l != nil {
		G = l
	}
}

// SetGlobalLevel 进程级最低级别，与各 Logger 自身的级别取较高者；可在运行中调整
func SetGlobalLevel(level zerolog.Level) {
	zerolog.SetGlobalLevel(level)
}

func Debug() *zerolog.Event {
	return G.Debug()
}

func Info() *zerolog.Event {
	return G.Info()
}

func Warn() *zerolog.Event {
	return G.Warn()
}

// Error 附带堆栈
func Error() *zerolog.Event {
	return G.Error().Stack()
}

// Fatal 写出后退出进程
func Fatal() *zerolog.Event {
	return G.Fatal().Stack()
}
