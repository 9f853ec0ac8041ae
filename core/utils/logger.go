package utils

import (
	"log"
	"os"
)

// Logger writes informational lines to stdout and errors to stderr.
// A nil *Logger is tolerated at call sites that guard with a nil check.
type Logger struct {
	out *log.Logger
	err *log.Logger
}

func NewLogger() *Logger {
	return &Logger{
		out: log.New(os.Stdout, "", log.LstdFlags|log.LUTC),
		err: log.New(os.Stderr, "ERROR ", log.LstdFlags|log.LUTC),
	}
}

func (l *Logger) Printf(format string, args ...any) {
	if l == nil {
		return
	}
	l.out.Printf(format, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	if l == nil {
		return
	}
	l.err.Printf(format, args...)
}
