// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package chirp

import (
	"time"
)

// Options configures a Logger. The zero value is valid and produces an INFO
// logger writing to a single console transport.
type Options struct {
	// Level is the minimum level delivered to transports. Zero means INFO.
	Level Level
	// Name is added to every entry under the "name" key when not empty.
	Name string
	// Base is merged into every entry.
	Base Fields
	// Transports receive entries in order. A nil slice installs one console
	// transport, an empty non-nil slice installs none.
	Transports []Transport
	// Browser holds the console object mode flag and the per level write hooks.
	Browser *BrowserOptions
	// Clock provides entry timestamps. Defaults to the system clock.
	Clock Clock
	// Warner reports transport failures. Defaults to DefaultWarner.
	Warner Warner
}

// BrowserOptions mirrors the side-channel settings of browser consoles.
type BrowserOptions struct {
	// AsObject makes the default console transport pass raw entries to its sinks.
	AsObject bool
	// Write hooks are invoked after the transport fan-out.
	Write WriteHooks
}

// WriteHooks are per level callbacks. ERROR and FATAL entries share Error.
type WriteHooks struct {
	Trace func(Entry)
	Debug func(Entry)
	Info  func(Entry)
	Warn  func(Entry)
	Error func(Entry)
}

func (h WriteHooks) forLevel(level Level) func(Entry) {
	switch level {
	case TRACE:
		return h.Trace
	case DEBUG:
		return h.Debug
	case INFO:
		return h.Info
	case WARN:
		return h.Warn
	case ERROR, FATAL:
		return h.Error
	default:
		return nil
	}
}

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}
