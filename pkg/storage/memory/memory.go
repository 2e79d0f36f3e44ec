// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package memory implements an in-process storage.Storage.
package memory

import (
	"bytes"
	"sync"

	"github.com/mia-platform/chirp/pkg/storage"
)

var _ storage.Storage = &Store{}

// Store keeps values in a map. When MaxBytes is positive, a Set that would
// grow the total size of the stored values over it fails with
// storage.ErrQuotaExceeded, like a browser storage area does.
type Store struct {
	MaxBytes int

	lock   sync.RWMutex
	values map[string][]byte
}

// New returns an empty Store without quota.
func New() *Store {
	return &Store{}
}

func (s *Store) Get(key string) ([]byte, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	value, ok := s.values[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return bytes.Clone(value), nil
}

func (s *Store) Set(key string, value []byte) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.MaxBytes > 0 && s.size()-len(s.values[key])+len(value) > s.MaxBytes {
		return storage.ErrQuotaExceeded
	}

	if s.values == nil {
		s.values = make(map[string][]byte)
	}
	s.values[key] = bytes.Clone(value)
	return nil
}

func (s *Store) Remove(key string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	delete(s.values, key)
	return nil
}

func (s *Store) Close() error {
	return nil
}

func (s *Store) size() int {
	total := 0
	for _, value := range s.values {
		total += len(value)
	}
	return total
}
