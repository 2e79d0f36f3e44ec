// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package chirp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// The default logger is process wide state: these tests must not run in parallel.
func TestDefaultLogger(t *testing.T) {
	t.Cleanup(ResetDefault)

	first := Default()
	assert.Same(t, first, Default())
	assert.Equal(t, INFO, first.Level())

	custom := New(Options{Level: DEBUG, Transports: []Transport{}, Warner: NopWarner()})
	SetDefault(custom)
	assert.Same(t, custom, Default())

	ResetDefault()
	recreated := Default()
	assert.NotSame(t, custom, recreated)
	assert.NotSame(t, first, recreated)
}
