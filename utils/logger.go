package utils

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"
)

// Logger provides leveled logging shared by every bot goroutine.
// The underlying log.Logger values serialise writes, so a Logger is safe
// for concurrent use.
type Logger struct {
	info  *log.Logger
	warn  *log.Logger
	err   *log.Logger
	debug *log.Logger

	component string
	verbose   bool
}

// NewLogger creates a Logger writing to stdout/stderr.
func NewLogger() *Logger {
	return newLogger(os.Stdout, os.Stderr)
}

// NewLoggerTo creates a Logger that writes every level to w.
func NewLoggerTo(w io.Writer) *Logger {
	return newLogger(w, w)
}

func newLogger(out, errOut io.Writer) *Logger {
	return &Logger{
		info:  log.New(out, "", 0),
		warn:  log.New(out, "", 0),
		err:   log.New(errOut, "", 0),
		debug: log.New(out, "", 0),
	}
}

// Named returns a Logger that prefixes every line with [component].
// The returned Logger shares the writers of l.
func (l *Logger) Named(component string) *Logger {
	c := *l
	c.component = component
	return &c
}

// SetVerbose toggles Debug output.
func (l *Logger) SetVerbose(v bool) {
	l.verbose = v
}

func (l *Logger) line(level, format string) string {
	ts := time.Now().Format("2006-01-02 15:04:05")
	if l.component != "" {
		return fmt.Sprintf("[%s] %s [%s] %s\n", ts, level, l.component, format)
	}
	return fmt.Sprintf("[%s] %s %s\n", ts, level, format)
}

func (l *Logger) Info(format string, args ...any) {
	l.info.Printf(l.line("\033[32mINFO\033[0m ", format), args...)
}

func (l *Logger) Warn(format string, args ...any) {
	l.warn.Printf(l.line("\033[33mWARN\033[0m ", format), args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.err.Printf(l.line("\033[31mERROR\033[0m", format), args...)
}

func (l *Logger) Debug(format string, args ...any) {
	if !l.verbose {
		return
	}
	l.debug.Printf(l.line("\033[36mDEBUG\033[0m", format), args...)
}
