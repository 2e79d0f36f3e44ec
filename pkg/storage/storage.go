// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package storage defines the key/value area where durable transports persist
// their entries, together with the errors shared by its backends.
package storage

import (
	"errors"
)

var (
	// ErrNotFound is returned by Get when the key has no value.
	ErrNotFound = errors.New("storage: key not found")
	// ErrQuotaExceeded is returned by Set when the backend has no room left.
	ErrQuotaExceeded = errors.New("storage: quota exceeded")
)

// Storage is a string keyed area of opaque values.
type Storage interface {
	// Get returns the value stored under key or ErrNotFound.
	Get(key string) ([]byte, error)
	// Set replaces the value stored under key.
	Set(key string, value []byte) error
	// Remove deletes key. Removing a missing key is not an error.
	Remove(key string) error
	// Close releases the backend resources.
	Close() error
}
