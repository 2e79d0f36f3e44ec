// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package logger

import (
	"io"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/mia-platform/chirp/pkg/chirp"
)

var (
	// nullLogger is a logger that discards all log messages.
	nullLogger = &instance{log: hclog.NewNullLogger()}
)

// Logger describes the diagnostics logger of the chirp command line tool.
// It also satisfies chirp.Warner, so it can receive the transport warnings.
type Logger interface {
	// WithName returns a new Logger instance with the specified name appended.
	WithName(name string) Logger

	// SetLevel updates the logger level.
	SetLevel(level chirp.Level)

	// Trace emit a message and key/value pairs at the TRACE level.
	Trace(msg string, args ...any)

	// Debug emit a message and key/value pairs at the DEBUG level.
	Debug(msg string, args ...any)

	// Info emit a message and key/value pairs at the INFO level.
	Info(msg string, args ...any)

	// Warn emit a message and key/value pairs at the WARN level.
	Warn(msg string, args ...any)

	// Error emit a message and key/value pairs at the ERROR level.
	Error(msg string, args ...any)
}

var (
	_ Logger       = &instance{}
	_ chirp.Warner = &instance{}
)

// instance is a Logger implementation.
type instance struct {
	log hclog.Logger
}

// NewLogger creates a new JSON logger writing to writer at INFO level.
func NewLogger(writer io.Writer) Logger {
	return &instance{
		log: hclog.New(&hclog.LoggerOptions{
			JSONFormat: true,
			Output:     writer,
			TimeFn:     time.Now,
			Level:      convertedLevel(chirp.INFO),
		}),
	}
}

// convertedLevel maps chirp levels on hclog ones; FATAL has no hclog
// counterpart and is treated as ERROR.
func convertedLevel(level chirp.Level) hclog.Level {
	switch level {
	case chirp.TRACE:
		return hclog.Trace
	case chirp.DEBUG:
		return hclog.Debug
	case chirp.INFO:
		return hclog.Info
	case chirp.WARN:
		return hclog.Warn
	case chirp.ERROR, chirp.FATAL:
		return hclog.Error
	default:
		return hclog.Info
	}
}

func (i instance) WithName(name string) Logger {
	return &instance{
		log: i.log.Named(name),
	}
}

func (i instance) SetLevel(level chirp.Level) {
	i.log.SetLevel(convertedLevel(level))
}

func (i instance) Trace(msg string, args ...any) {
	i.log.Trace(msg, args...)
}

func (i instance) Debug(msg string, args ...any) {
	i.log.Debug(msg, args...)
}

func (i instance) Info(msg string, args ...any) {
	i.log.Info(msg, args...)
}

func (i instance) Warn(msg string, args ...any) {
	i.log.Warn(msg, args...)
}

func (i instance) Error(msg string, args ...any) {
	i.log.Error(msg, args...)
}
