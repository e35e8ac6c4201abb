package ui

import "fmt"

// Numeric log levels, same scale the original CLI exposed via --log_level.
const (
	LevelDebug = 10
	LevelInfo  = 20
	LevelWarn  = 30
	LevelError = 40
)

type Logger struct {
	Level int
}

func NewLogger(level int) *Logger {
	if level <= 0 {
		level = LevelInfo
	}
	return &Logger{Level: level}
}

func (l *Logger) Debugf(format string, args ...any) {
	if l.Level <= LevelDebug {
		fmt.Printf("[DEBUG] "+format+"\n", args...)
	}
}

func (l *Logger) Infof(format string, args ...any) {
	if l.Level <= LevelInfo {
		fmt.Printf("[INFO] "+format+"\n", args...)
	}
}

func (l *Logger) Warnf(format string, args ...any) {
	if l.Level <= LevelWarn {
		fmt.Printf("[WARN] "+format+"\n", args...)
	}
}

func (l *Logger) Errorf(format string, args ...any) {
	if l.Level <= LevelError {
		fmt.Printf("[ERROR] "+format+"\n", args...)
	}
}
