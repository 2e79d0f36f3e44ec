// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package chirp

import (
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/hashicorp/go-multierror"

	"github.com/mia-platform/chirp/pkg/clock"
)

// Logger builds entries from logging calls and fans them out to its transports.
// A Logger never changes after construction and is safe for concurrent use.
type Logger struct {
	level      Level
	name       string
	base       Fields
	transports []Transport
	browser    *BrowserOptions
	clock      Clock
	warner     Warner
}

// New returns a Logger configured with opts.
func New(opts Options) *Logger {
	logger := &Logger{
		level:  opts.Level.orDefault(),
		name:   opts.Name,
		base:   sanitize(maps.Clone(opts.Base)),
		clock:  opts.Clock,
		warner: opts.Warner,
	}

	if logger.clock == nil {
		logger.clock = clock.Real{}
	}
	if logger.warner == nil {
		logger.warner = DefaultWarner()
	}
	if opts.Browser != nil {
		browser := *opts.Browser
		logger.browser = &browser
	}

	switch {
	case opts.Transports == nil:
		logger.transports = []Transport{NewConsoleTransport(ConsoleOptions{
			AsObject: logger.browser != nil && logger.browser.AsObject,
			Warner:   logger.warner,
		})}
	default:
		logger.transports = slices.Clone(opts.Transports)
	}

	return logger
}

// Level returns the minimum level delivered to transports.
func (l *Logger) Level() Level {
	return l.level
}

// Name returns the logger name, empty when unset.
func (l *Logger) Name() string {
	return l.name
}

// Enabled reports whether an entry at level would be delivered.
func (l *Logger) Enabled(level Level) bool {
	return level >= l.level
}

// Trace logs at TRACE. See Log for the accepted arguments.
func (l *Logger) Trace(args ...any) { l.Log(TRACE, args...) }

// Debug logs at DEBUG. See Log for the accepted arguments.
func (l *Logger) Debug(args ...any) { l.Log(DEBUG, args...) }

// Info logs at INFO. See Log for the accepted arguments.
func (l *Logger) Info(args ...any) { l.Log(INFO, args...) }

// Warn logs at WARN. See Log for the accepted arguments.
func (l *Logger) Warn(args ...any) { l.Log(WARN, args...) }

// Error logs at ERROR. See Log for the accepted arguments.
func (l *Logger) Error(args ...any) { l.Log(ERROR, args...) }

// Fatal logs at FATAL. It does not stop the program.
func (l *Logger) Fatal(args ...any) { l.Log(FATAL, args...) }

// Log emits an entry at level. The arguments are either
// (context Fields, template, formatArgs...) or (template, formatArgs...):
// when the first argument is a Fields or a map[string]any it is merged into the
// entry and the second argument, if any, is the message template.
func (l *Logger) Log(level Level, args ...any) {
	if level < l.level {
		return
	}

	l.dispatch(l.newEntry(level, args))
}

func (l *Logger) dispatch(entry Entry) {
	for _, transport := range l.transports {
		if transport != nil {
			l.write(transport, entry)
		}
	}

	if l.browser != nil {
		if hook := l.browser.Write.forLevel(entry.Level); hook != nil {
			l.callHook(hook, entry)
		}
	}
}

// Forward delivers an entry built elsewhere, for example received from a
// remote producer, to the transports and hooks of the logger. The entry is
// subject to the level threshold but is otherwise left untouched.
func (l *Logger) Forward(entry Entry) {
	if entry.Level < l.level {
		return
	}

	l.dispatch(entry)
}

// Child returns an independent Logger sharing this logger configuration, whose
// base fields are the parent ones overridden by bindings.
func (l *Logger) Child(bindings Fields) *Logger {
	base := maps.Clone(l.base)
	if base == nil {
		base = make(Fields, len(bindings))
	}
	maps.Copy(base, bindings)

	child := &Logger{
		level:      l.level,
		name:       l.name,
		base:       sanitize(base),
		transports: slices.Clone(l.transports),
		clock:      l.clock,
		warner:     l.warner,
	}
	if l.browser != nil {
		browser := *l.browser
		child.browser = &browser
	}

	return child
}

// Close releases every transport implementing io.Closer and returns the
// aggregated failures. Children share the parent transports, so only the
// logger that owns them should be closed.
func (l *Logger) Close() error {
	var result *multierror.Error
	for _, transport := range l.transports {
		closer, ok := transport.(io.Closer)
		if !ok {
			continue
		}

		if err := closer.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}

	return result.ErrorOrNil()
}

func (l *Logger) newEntry(level Level, args []any) Entry {
	context, template, formatArgs := splitArgs(args)

	fields := make(Fields, len(l.base)+len(context)+1)
	maps.Copy(fields, l.base)
	if l.name != "" {
		fields[nameKey] = l.name
	}
	maps.Copy(fields, context)
	sanitize(fields)
	if len(fields) == 0 {
		fields = nil
	}

	return Entry{
		Level:  level,
		Time:   l.clock.Now().UnixMilli(),
		Msg:    Format(template, formatArgs...),
		Fields: fields,
	}
}

func (l *Logger) write(transport Transport, entry Entry) {
	defer func() {
		if r := recover(); r != nil {
			l.warner.Warn("transport panicked while writing log entry", "transport", fmt.Sprintf("%T", transport), "panic", r)
		}
	}()

	if err := transport.Write(entry); err != nil {
		l.warner.Warn("transport failed to write log entry", "transport", fmt.Sprintf("%T", transport), "error", err)
	}
}

func (l *Logger) callHook(hook func(Entry), entry Entry) {
	defer func() {
		if r := recover(); r != nil {
			l.warner.Warn("write hook panicked", "level", entry.Level.String(), "panic", r)
		}
	}()

	hook(entry)
}

// splitArgs separates the optional leading context from the message template
// and its format arguments.
func splitArgs(args []any) (Fields, string, []any) {
	if len(args) == 0 {
		return nil, "", nil
	}

	var context Fields
	switch first := args[0].(type) {
	case Fields:
		context = first
	case map[string]any:
		context = first
	default:
		return nil, coerceTemplate(first), args[1:]
	}

	if len(args) == 1 {
		return context, "", nil
	}
	return context, coerceTemplate(args[1]), args[2:]
}

func coerceTemplate(value any) string {
	if template, ok := value.(string); ok {
		return template
	}
	return coerceString(value)
}

// sanitize removes the reserved keys so that they can never shadow the entry
// level, time and msg.
func sanitize(fields Fields) Fields {
	delete(fields, levelKey)
	delete(fields, timeKey)
	delete(fields, msgKey)
	return fields
}
