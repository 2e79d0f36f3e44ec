// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package chirp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// isoLayout matches the ISO-8601 rendering with millisecond precision in UTC.
const isoLayout = "2006-01-02T15:04:05.000Z"

var _ Transport = &ConsoleTransport{}

// Sink receives either a formatted line or a raw Entry, depending on the
// console mode.
type Sink func(v any)

// ConsoleSinks groups the four console channels. Missing channels fall back to
// the defaults: debug and info on stdout, warn and error on stderr.
type ConsoleSinks struct {
	Debug Sink
	Info  Sink
	Warn  Sink
	Error Sink
}

// ConsoleOptions configures a ConsoleTransport.
type ConsoleOptions struct {
	// AsObject passes the raw Entry to the sinks instead of a formatted line.
	AsObject bool
	Sinks    ConsoleSinks
	Warner   Warner
}

// ConsoleTransport writes entries synchronously to console style sinks.
type ConsoleTransport struct {
	asObject bool
	sinks    ConsoleSinks
	warner   Warner

	lock sync.Mutex
}

// NewConsoleTransport returns a console transport configured with opts.
func NewConsoleTransport(opts ConsoleOptions) *ConsoleTransport {
	sinks := opts.Sinks
	if sinks.Debug == nil {
		sinks.Debug = WriterSink(os.Stdout)
	}
	if sinks.Info == nil {
		sinks.Info = WriterSink(os.Stdout)
	}
	if sinks.Warn == nil {
		sinks.Warn = WriterSink(os.Stderr)
	}
	if sinks.Error == nil {
		sinks.Error = WriterSink(os.Stderr)
	}

	warner := opts.Warner
	if warner == nil {
		warner = DefaultWarner()
	}

	return &ConsoleTransport{
		asObject: opts.AsObject,
		sinks:    sinks,
		warner:   warner,
	}
}

// Write implements Transport.
func (c *ConsoleTransport) Write(entry Entry) error {
	sink := c.sinkFor(entry.Level)

	var value any = entry
	if !c.asObject {
		line, err := FormatEntry(entry)
		if err != nil {
			c.warner.Warn("cannot serialize log entry fields", "error", err)
		}
		value = line
	}

	c.lock.Lock()
	defer c.lock.Unlock()
	sink(value)
	return nil
}

func (c *ConsoleTransport) sinkFor(level Level) Sink {
	switch level {
	case TRACE, DEBUG:
		return c.sinks.Debug
	case WARN:
		return c.sinks.Warn
	case ERROR, FATAL:
		return c.sinks.Error
	default:
		return c.sinks.Info
	}
}

// FormatEntry renders entry as "[<timestamp>] <LEVEL>: <msg>" followed by the
// JSON encoding of its extra fields when there are any. When the fields cannot
// be encoded the line is returned without them together with the error.
func FormatEntry(entry Entry) (string, error) {
	line := "[" + entry.Timestamp().Format(isoLayout) + "] " + entry.Level.String() + ": " + entry.Msg
	if len(entry.Fields) == 0 {
		return line, nil
	}

	buffer := new(bytes.Buffer)
	encoder := json.NewEncoder(buffer)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(entry.Fields); err != nil {
		return line, err
	}

	return line + " " + strings.TrimSuffix(buffer.String(), "\n"), nil
}

// WriterSink returns a Sink printing one line per value on w. Values other
// than strings are rendered as JSON.
func WriterSink(w io.Writer) Sink {
	return func(v any) {
		if line, ok := v.(string); ok {
			fmt.Fprintln(w, line)
			return
		}

		data, err := json.Marshal(v)
		if err != nil {
			fmt.Fprintln(w, v)
			return
		}
		fmt.Fprintln(w, string(data))
	}
}
