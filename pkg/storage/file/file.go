// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package file implements storage.Storage with one file per key on an afero
// filesystem.
package file

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/mia-platform/chirp/pkg/storage"
)

const (
	fileExtension = ".log.json"
	dirMode       = 0o755
	fileMode      = 0o600
)

var _ storage.Storage = &Store{}

// Store persists every key in its own file under a base directory.
type Store struct {
	fs  afero.Fs
	dir string
}

// New returns a Store rooted at dir on fsys, creating the directory if needed.
func New(fsys afero.Fs, dir string) (*Store, error) {
	if err := fsys.MkdirAll(dir, dirMode); err != nil {
		return nil, fmt.Errorf("file storage: %w", err)
	}

	return &Store{fs: fsys, dir: dir}, nil
}

// NewOS returns a Store on the operating system filesystem.
func NewOS(dir string) (*Store, error) {
	return New(afero.NewOsFs(), dir)
}

func (s *Store) Get(key string) ([]byte, error) {
	data, err := afero.ReadFile(s.fs, s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, storage.ErrNotFound
	}
	return data, err
}

// Set writes the value to a temporary file and renames it over the previous
// one, so readers never observe a partial write.
func (s *Store) Set(key string, value []byte) error {
	target := s.path(key)
	tmp := target + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, value, fileMode); err != nil {
		return err
	}

	return s.fs.Rename(tmp, target)
}

func (s *Store) Remove(key string) error {
	err := s.fs.Remove(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (s *Store) Close() error {
	return nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, url.PathEscape(key)+fileExtension)
}
