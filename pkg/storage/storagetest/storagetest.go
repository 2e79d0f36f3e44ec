// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package storagetest holds the behavior every storage.Storage backend must
// share, to be run from the backend tests.
package storagetest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mia-platform/chirp/pkg/storage"
)

// Run exercises store. The store must be empty.
func Run(t *testing.T, store storage.Storage) {
	t.Helper()

	t.Run("missing key", func(t *testing.T) {
		_, err := store.Get("missing")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("set get and overwrite", func(t *testing.T) {
		require.NoError(t, store.Set("chirp-logs", []byte(`[{"level":30}]`)))
		data, err := store.Get("chirp-logs")
		require.NoError(t, err)
		assert.Equal(t, `[{"level":30}]`, string(data))

		require.NoError(t, store.Set("chirp-logs", []byte(`[]`)))
		data, err = store.Get("chirp-logs")
		require.NoError(t, err)
		assert.Equal(t, `[]`, string(data))
	})

	t.Run("keys are independent", func(t *testing.T) {
		require.NoError(t, store.Set("app/one", []byte("1")))
		require.NoError(t, store.Set("app/two", []byte("2")))

		data, err := store.Get("app/one")
		require.NoError(t, err)
		assert.Equal(t, "1", string(data))
	})

	t.Run("remove", func(t *testing.T) {
		require.NoError(t, store.Set("gone", []byte("x")))
		require.NoError(t, store.Remove("gone"))
		_, err := store.Get("gone")
		assert.ErrorIs(t, err, storage.ErrNotFound)

		assert.NoError(t, store.Remove("never-set"))
	})
}
