// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package redis implements storage.Storage on a Redis server, letting several
// processes share the same durable log area.
package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mia-platform/chirp/pkg/storage"
)

const defaultTimeout = 2 * time.Second

var _ storage.Storage = &Store{}

// Options configures a Store.
type Options struct {
	// KeyPrefix is prepended to every key.
	KeyPrefix string
	// Timeout bounds every command. Defaults to two seconds.
	Timeout time.Duration
}

// Store is the Redis storage adapter.
type Store struct {
	client  redis.UniversalClient
	prefix  string
	timeout time.Duration
}

// New returns a Store using client.
func New(client redis.UniversalClient, opts Options) *Store {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}

	return &Store{
		client:  client,
		prefix:  opts.KeyPrefix,
		timeout: opts.Timeout,
	}
}

// NewFromAddr returns a Store connected to a single Redis node at addr.
func NewFromAddr(addr string, opts Options) *Store {
	return New(redis.NewClient(&redis.Options{Addr: addr}), opts)
}

func (s *Store) Get(key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, storage.ErrNotFound
	}
	return data, err
}

func (s *Store) Set(key string, value []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	return s.client.Set(ctx, s.prefix+key, value, 0).Err()
}

func (s *Store) Remove(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	return s.client.Del(ctx, s.prefix+key).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}
