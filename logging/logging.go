// Package logging provides the structured logger used across the voxel packages. It is a thin
// layer over zap: loggers are named, carry their own level and fan out to appenders.
package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// GlobalLogLevel lowers every logger to debug when set to zap.DebugLevel.
var GlobalLogLevel = zap.NewAtomicLevelAt(zap.InfoLevel)

// NewLogger returns a logger writing INFO and above to stdout with UTC timestamps. The logger
// and its subloggers are registered for UpdateLoggerConfig.
func NewLogger(name string) Logger {
	return newImpl(name, INFO, true, NewStdoutAppender()).register(globalLoggerRegistry)
}

// NewBlankLogger returns a DEBUG logger with no appenders. Callers attach their own with
// AddAppender. Like NewLogger it is registered for UpdateLoggerConfig.
func NewBlankLogger(name string) Logger {
	return newImpl(name, DEBUG, true).register(globalLoggerRegistry)
}

// NewTestLogger returns a DEBUG logger that writes through tb.Log in local time.
func NewTestLogger(tb testing.TB) Logger {
	logger, _ := NewObservedTestLogger(tb)
	return logger
}

// NewObservedTestLogger is NewTestLogger that also records every entry for assertions.
func NewObservedTestLogger(tb testing.TB) (Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.LevelEnablerFunc(zapcore.DebugLevel.Enabled))
	// Test loggers get a registry of their own so tests never see each other's patterns.
	return newImpl("", DEBUG, false, NewTestAppender(tb), core).register(NewRegistry()), logs
}
