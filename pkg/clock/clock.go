// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package clock provides the time sources used to stamp log entries.
package clock

import (
	"sync"
	"time"
)

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// Real is the system clock.
type Real struct{}

// Now returns the current system time.
func (Real) Now() time.Time { return time.Now() }

// Mock is a manually driven clock for tests. It is safe for concurrent use.
type Mock struct {
	lock    sync.Mutex
	current time.Time
}

// NewMock returns a Mock set to t, or to 2024-01-01T00:00:00Z when t is zero.
func NewMock(t time.Time) *Mock {
	if t.IsZero() {
		t = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return &Mock{current: t}
}

// Now returns the mock current time.
func (m *Mock) Now() time.Time {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.current
}

// Set moves the mock to t.
func (m *Mock) Set(t time.Time) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.current = t
}

// Advance moves the mock forward by d.
func (m *Mock) Advance(d time.Duration) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.current = m.current.Add(d)
}
