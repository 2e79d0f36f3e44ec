// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package chirp is a leveled logger with pluggable transports.
//
// A Logger filters calls by level, builds one Entry per call merging its base
// fields, its name and the caller fields, formats the message with the %s, %d,
// %j and %% placeholders and hands the entry to every Transport in order.
// Transport failures are reported on a Warner side channel and never reach the
// caller.
package chirp
