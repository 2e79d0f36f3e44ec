// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package leveldb implements storage.Storage on top of a LevelDB database.
package leveldb

import (
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	ldberr "github.com/syndtr/goleveldb/leveldb/errors"
	ldbs "github.com/syndtr/goleveldb/leveldb/storage"

	"github.com/mia-platform/chirp/pkg/storage"
)

var _ storage.Storage = &Store{}

// Store uses LevelDB to store values.
type Store struct {
	db *leveldb.DB
}

// NewInMemory returns a Store that lives only in memory.
func NewInMemory() (*Store, error) {
	db, err := leveldb.Open(ldbs.NewMemStorage(), nil)
	if err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

// Open opens or creates the database at path, recovering it when corrupted.
func Open(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		if !ldberr.IsCorrupted(err) {
			return nil, err
		}

		db, err = leveldb.RecoverFile(path, nil)
		if err != nil {
			return nil, fmt.Errorf("leveldb storage recovery: %w", err)
		}
	}

	return &Store{db: db}, nil
}

func (s *Store) Get(key string) ([]byte, error) {
	data, err := s.db.Get([]byte(key), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, storage.ErrNotFound
	}
	return data, err
}

func (s *Store) Set(key string, value []byte) error {
	return s.db.Put([]byte(key), value, nil)
}

func (s *Store) Remove(key string) error {
	return s.db.Delete([]byte(key), nil)
}

func (s *Store) Close() error {
	return s.db.Close()
}
