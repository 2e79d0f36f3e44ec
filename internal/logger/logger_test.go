// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mia-platform/chirp/pkg/chirp"
)

func TestLogger(t *testing.T) {
	t.Parallel()

	buffer := new(bytes.Buffer)
	logger := NewLogger(buffer)

	logger.SetLevel(chirp.TRACE)
	namedLogger := logger.WithName("test_logger")
	namedLogger.Info("new log line for INFO level")
	logger.Trace("new log line for TRACE level")
	logger.SetLevel(chirp.DEBUG)
	logger.Debug("new log line for DEBUG level")
	namedLogger.Warn("new log line for WARN level")

	logger.SetLevel(chirp.ERROR)
	namedLogger.Warn("silenced log line for WARN level")
	logger.SetLevel(chirp.WARN)
	logger.Error("new log line for ERROR level")
	logger.Debug("silenced log line for DEBUG level")

	logger.SetLevel(999) // invalid level; should default to INFO
	logger.Info("new log line for INFO level after invalid level set")
	namedLogger.Debug("silenced log line for DEBUG level after invalid level set")

	lines := strings.Split(buffer.String(), "\n")
	assert.Len(t, lines, 7) // 6 log lines plus 1 trailing empty line

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "test_logger", first["@module"])
}

func TestConvertedLevel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, hclog.Trace, convertedLevel(chirp.TRACE))
	assert.Equal(t, hclog.Debug, convertedLevel(chirp.DEBUG))
	assert.Equal(t, hclog.Info, convertedLevel(chirp.INFO))
	assert.Equal(t, hclog.Warn, convertedLevel(chirp.WARN))
	assert.Equal(t, hclog.Error, convertedLevel(chirp.ERROR))
	assert.Equal(t, hclog.Error, convertedLevel(chirp.FATAL))
	assert.Equal(t, hclog.Info, convertedLevel(chirp.Level(0)))
}

func TestLoggerAsWarner(t *testing.T) {
	t.Parallel()

	buffer := new(bytes.Buffer)
	var warner chirp.Warner = NewLogger(buffer)
	warner.Warn("failed to send logs to network", "entries", 3)

	assert.Contains(t, buffer.String(), `"@level":"warn"`)
	assert.Contains(t, buffer.String(), `"entries":3`)
}
