// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package logger provides the diagnostics logger of the chirp command line tool
// and its collector server. It is distinct from the chirp library loggers: it
// reports what the tool itself is doing and receives the transport warnings.
package logger
