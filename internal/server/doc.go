// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package server contains the collector server of the chirp command.
// It sets up the HTTP server using the Fiber framework, configures middleware for logging,
// and defines the routes receiving log batches, exposing metrics and reporting the service status.
package server
