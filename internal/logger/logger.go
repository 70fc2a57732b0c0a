// Package logger provides the leveled console logger used by all archivist
// commands. Output is timestamped, thread-safe, and colored when the
// destination is a TTY.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

const (
	levelTrace int = 0
	levelDebug int = 1
	levelInfo  int = 2
	levelWarn  int = 3
	levelError int = 4
)

// ConsoleLogger writes leveled, timestamped messages to a writer.
// Messages below the configured level are discarded. A nil writer discards
// everything, which keeps call sites free of nil checks.
type ConsoleLogger struct {
	writer      io.Writer
	level       int
	mutex       sync.Mutex
	colorOutput bool
}

// New creates a ConsoleLogger writing to w at the given level.
// Valid levels: trace, debug, info, warn, error (case-insensitive); anything
// else defaults to info. Color is enabled only for TTY stdout/stderr.
func New(w io.Writer, level string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      w,
		level:       levelToInt(normalizeLevel(level)),
		colorOutput: isTerminal(w),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	if f != os.Stdout && f != os.Stderr {
		return false
	}
	if color.NoColor {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func normalizeLevel(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))
	switch normalized {
	case "trace", "debug", "info", "warn", "error":
		return normalized
	}
	return "info"
}

func levelToInt(level string) int {
	switch level {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "info":
		return levelInfo
	case "warn":
		return levelWarn
	case "error":
		return levelError
	}
	return levelInfo
}

func (cl *ConsoleLogger) log(level int, tag, message string) {
	if cl == nil || cl.writer == nil || level < cl.level {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	timestamp := time.Now().Format("15:04:05")
	if cl.colorOutput {
		switch level {
		case levelWarn:
			tag = color.YellowString(tag)
		case levelError:
			tag = color.RedString(tag)
		case levelDebug, levelTrace:
			tag = color.HiBlackString(tag)
		}
	}
	fmt.Fprintf(cl.writer, "[%s] [%s] %s\n", timestamp, tag, message)
}

// Tracef logs a trace-level message.
func (cl *ConsoleLogger) Tracef(format string, args ...interface{}) {
	cl.log(levelTrace, "TRACE", fmt.Sprintf(format, args...))
}

// Debugf logs a debug-level message.
func (cl *ConsoleLogger) Debugf(format string, args ...interface{}) {
	cl.log(levelDebug, "DEBUG", fmt.Sprintf(format, args...))
}

// Infof logs an info-level message.
func (cl *ConsoleLogger) Infof(format string, args ...interface{}) {
	cl.log(levelInfo, "INFO", fmt.Sprintf(format, args...))
}

// Warnf logs a warning-level message.
func (cl *ConsoleLogger) Warnf(format string, args ...interface{}) {
	cl.log(levelWarn, "WARN", fmt.Sprintf(format, args...))
}

// Errorf logs an error-level message.
func (cl *ConsoleLogger) Errorf(format string, args ...interface{}) {
	cl.log(levelError, "ERROR", fmt.Sprintf(format, args...))
}
