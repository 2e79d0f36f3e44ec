// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mia-platform/chirp/pkg/storage"
	"github.com/mia-platform/chirp/pkg/storage/storagetest"
)

func TestStore(t *testing.T) {
	store := New()
	storagetest.Run(t, store)
	assert.NoError(t, store.Close())
}

func TestQuota(t *testing.T) {
	t.Parallel()

	store := &Store{MaxBytes: 10}
	require.NoError(t, store.Set("a", []byte("12345")))
	require.NoError(t, store.Set("a", []byte("1234567890")))
	assert.ErrorIs(t, store.Set("b", []byte("1")), storage.ErrQuotaExceeded)

	require.NoError(t, store.Remove("a"))
	assert.NoError(t, store.Set("b", []byte("1")))
}

func TestValuesAreCopied(t *testing.T) {
	t.Parallel()

	store := New()
	value := []byte("abc")
	require.NoError(t, store.Set("k", value))
	value[0] = 'x'

	data, err := store.Get("k")
	require.NoError(t, err)
	data[1] = 'y'

	again, err := store.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(again))
}
