// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package chirp

import (
	"os"

	"github.com/hashicorp/go-hclog"
)

// Transport receives every Entry that passes the logger level threshold.
// Implementations are responsible for their own failures: an error returned by
// Write is only reported on the logger Warner and never reaches the caller.
type Transport interface {
	Write(entry Entry) error
}

// TransportFunc adapts a plain function to the Transport interface.
type TransportFunc func(entry Entry) error

// Write implements Transport.
func (f TransportFunc) Write(entry Entry) error {
	return f(entry)
}

// Warner is the low severity side channel used to report failures that must
// not reach the caller of a logging method.
type Warner interface {
	Warn(msg string, args ...any)
}

// DefaultWarner returns the side channel used when none is configured: an
// hclog logger writing JSON lines to stderr.
func DefaultWarner() Warner {
	return hclog.New(&hclog.LoggerOptions{
		Name:       "chirp",
		Level:      hclog.Warn,
		Output:     os.Stderr,
		JSONFormat: true,
	})
}

// NopWarner returns a Warner that discards everything.
func NopWarner() Warner {
	return hclog.NewNullLogger()
}
