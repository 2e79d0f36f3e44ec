// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package chirp

import (
	"sync"
)

// The process wide logger shared by integrations that cannot carry their own
// instance. It is created on first use and lives until replaced or reset.
var (
	defaultLock   sync.Mutex
	defaultLogger *Logger
)

// Default returns the process wide logger, creating it with the zero Options
// on first use.
func Default() *Logger {
	defaultLock.Lock()
	defer defaultLock.Unlock()

	if defaultLogger == nil {
		defaultLogger = New(Options{})
	}
	return defaultLogger
}

// SetDefault replaces the process wide logger. A nil logger behaves like
// ResetDefault.
func SetDefault(logger *Logger) {
	defaultLock.Lock()
	defer defaultLock.Unlock()

	defaultLogger = logger
}

// ResetDefault drops the process wide logger; the next Default call creates a
// new one.
func ResetDefault() {
	SetDefault(nil)
}
