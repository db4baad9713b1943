// Package debug provides leveled logging for the control context. The
// render path must never log; anything worth reporting from a block is
// counted or latched there and logged from the control side.
package debug

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Level controls logging verbosity.
type Level int32

const (
	// LevelOff disables all output.
	LevelOff Level = iota
	// LevelError logs failures only.
	LevelError
	// LevelWarn adds recoverable conditions.
	LevelWarn
	// LevelInfo adds lifecycle events.
	LevelInfo
	// LevelDebug adds per-operation detail.
	LevelDebug
)

var (
	level  atomic.Int32
	out    io.Writer = os.Stderr
	outMu  sync.Mutex
	prefix = "grainloom"
)

func init() {
	if os.Getenv("GRAINLOOM_DEBUG") != "" {
		level.Store(int32(LevelDebug))
	} else {
		level.Store(int32(LevelError))
	}
}

// SetLevel sets the global log level.
func SetLevel(l Level) {
	level.Store(int32(l))
}

// GetLevel returns the current log level.
func GetLevel() Level {
	return Level(level.Load())
}

// SetOutput redirects log output. Defaults to stderr.
func SetOutput(w io.Writer) {
	outMu.Lock()
	out = w
	outMu.Unlock()
}

func logf(l Level, tag, format string, args ...interface{}) {
	if Level(level.Load()) < l {
		return
	}
	msg := fmt.Sprintf(format, args...)
	ts := time.Now().Format("15:04:05.000")
	outMu.Lock()
	fmt.Fprintf(out, "[%s] %s %s: %s\n", ts, prefix, tag, msg)
	outMu.Unlock()
}

// Errorf logs at error level.
func Errorf(format string, args ...interface{}) {
	logf(LevelError, "ERROR", format, args...)
}

// Warnf logs at warn level.
func Warnf(format string, args ...interface{}) {
	logf(LevelWarn, "WARN", format, args...)
}

// Infof logs at info level.
func Infof(format string, args ...interface{}) {
	logf(LevelInfo, "INFO", format, args...)
}

// Debugf logs at debug level.
func Debugf(format string, args ...interface{}) {
	logf(LevelDebug, "DEBUG", format, args...)
}
