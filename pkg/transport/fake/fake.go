// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package fake provides test doubles for transports and warners.
package fake

import (
	"sync"
	"testing"

	"github.com/mia-platform/chirp/pkg/chirp"
)

var _ chirp.Transport = &Transport{}

// Transport records every entry it receives and optionally fails.
type Transport struct {
	tb testing.TB

	// Err is returned by every Write when set.
	Err error

	lock    sync.Mutex
	entries []chirp.Entry
	closed  bool
}

func NewTransport(tb testing.TB) *Transport {
	tb.Helper()
	return &Transport{tb: tb}
}

func (f *Transport) Write(entry chirp.Entry) error {
	f.tb.Helper()
	f.lock.Lock()
	defer f.lock.Unlock()

	f.entries = append(f.entries, entry)
	return f.Err
}

func (f *Transport) Close() error {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.closed = true
	return nil
}

// Entries returns a copy of the received entries.
func (f *Transport) Entries() []chirp.Entry {
	f.lock.Lock()
	defer f.lock.Unlock()
	return append([]chirp.Entry(nil), f.entries...)
}

func (f *Transport) Closed() bool {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.closed
}

var _ chirp.Warner = &Warner{}

// Warning is a message received by Warner.
type Warning struct {
	Msg  string
	Args []any
}

// Warner records the warnings raised by the code under test.
type Warner struct {
	lock     sync.Mutex
	warnings []Warning
}

func NewWarner() *Warner {
	return &Warner{}
}

func (w *Warner) Warn(msg string, args ...any) {
	w.lock.Lock()
	defer w.lock.Unlock()
	w.warnings = append(w.warnings, Warning{Msg: msg, Args: args})
}

func (w *Warner) Warnings() []Warning {
	w.lock.Lock()
	defer w.lock.Unlock()
	return append([]Warning(nil), w.warnings...)
}

// Messages returns only the warning messages, in order.
func (w *Warner) Messages() []string {
	w.lock.Lock()
	defer w.lock.Unlock()

	messages := make([]string, 0, len(w.warnings))
	for _, warning := range w.warnings {
		messages = append(messages, warning.Msg)
	}
	return messages
}
