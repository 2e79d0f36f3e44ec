// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package durable implements a transport keeping the most recent entries in a
// key/value storage area, as a capped sequence persisted under a single key.
package durable

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/mia-platform/chirp/pkg/chirp"
	"github.com/mia-platform/chirp/pkg/codec"
	"github.com/mia-platform/chirp/pkg/storage"
)

const (
	// DefaultKey is the storage key used when none is configured.
	DefaultKey = "chirp-logs"
	// DefaultMaxEntries is the retained entry count used when none is configured.
	DefaultMaxEntries = 1000
)

var _ chirp.Transport = &Transport{}

// Serializer renders one entry for Export.
type Serializer func(entry chirp.Entry) (string, error)

// Options configures a Transport.
type Options struct {
	Key        string
	MaxEntries int
	// Serialize renders entries for Export. Defaults to JSONSerializer.
	Serialize Serializer
	// Codec encodes the persisted sequence. Defaults to codec.Default.
	Codec  codec.Codec
	Warner chirp.Warner
}

// Transport appends every entry to the persisted sequence, dropping the oldest
// entries over the configured maximum. Every storage failure is reported on the
// Warner and swallowed.
//
// Writes through the same Transport are serialized, but different instances
// sharing a key are not coordinated and may lose updates.
type Transport struct {
	store      storage.Storage
	key        string
	maxEntries int
	serialize  Serializer
	codec      codec.Codec
	warner     chirp.Warner

	lock sync.Mutex
}

// New returns a Transport persisting to store. A nil store behaves as an
// unavailable storage area: writes are dropped and reads are empty.
func New(store storage.Storage, opts Options) *Transport {
	transport := &Transport{
		store:      store,
		key:        opts.Key,
		maxEntries: opts.MaxEntries,
		serialize:  opts.Serialize,
		codec:      opts.Codec,
		warner:     opts.Warner,
	}

	if transport.key == "" {
		transport.key = DefaultKey
	}
	if transport.maxEntries <= 0 {
		transport.maxEntries = DefaultMaxEntries
	}
	if transport.serialize == nil {
		transport.serialize = JSONSerializer
	}
	if transport.codec == nil {
		transport.codec = codec.Default
	}
	if transport.warner == nil {
		transport.warner = chirp.DefaultWarner()
	}

	return transport
}

// Key returns the storage key of the sequence.
func (t *Transport) Key() string {
	return t.key
}

// Write implements chirp.Transport.
func (t *Transport) Write(entry chirp.Entry) error {
	if t.store == nil {
		return nil
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	entries := append(t.read(), entry)
	if overflow := len(entries) - t.maxEntries; overflow > 0 {
		entries = entries[overflow:]
	}

	if err := t.persist(entries); err != nil {
		t.warner.Warn("failed to write log to storage", "key", t.key, "error", err)
	}
	return nil
}

// GetLogs returns the persisted entries, oldest first. Any failure returns an
// empty sequence.
func (t *Transport) GetLogs() []chirp.Entry {
	if t.store == nil {
		return []chirp.Entry{}
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	entries := t.read()
	if entries == nil {
		return []chirp.Entry{}
	}
	return entries
}

// Clear removes the persisted sequence.
func (t *Transport) Clear() {
	if t.store == nil {
		return
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	if err := t.store.Remove(t.key); err != nil {
		t.warner.Warn("failed to clear logs from storage", "key", t.key, "error", err)
	}
}

// Export returns the persisted entries rendered by the serializer, one per line.
// Entries the serializer rejects are skipped.
func (t *Transport) Export() string {
	entries := t.GetLogs()
	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		line, err := t.serialize(entry)
		if err != nil {
			t.warner.Warn("failed to serialize log entry", "key", t.key, "error", err)
			continue
		}
		lines = append(lines, line)
	}

	return strings.Join(lines, "\n")
}

// Close releases the underlying storage.
func (t *Transport) Close() error {
	if t.store == nil {
		return nil
	}
	return t.store.Close()
}

// read returns the persisted sequence. Missing or corrupted data is an empty
// sequence.
func (t *Transport) read() []chirp.Entry {
	data, err := t.store.Get(t.key)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return nil
	case err != nil:
		t.warner.Warn("failed to read logs from storage", "key", t.key, "error", err)
		return nil
	case len(data) == 0:
		return nil
	}

	var raw []map[string]any
	if err := t.codec.Unmarshal(data, &raw); err != nil {
		t.warner.Warn("discarding corrupted logs in storage", "key", t.key, "error", err)
		return nil
	}

	entries := make([]chirp.Entry, 0, len(raw)+1)
	for _, item := range raw {
		entry, err := chirp.EntryFromMap(item)
		if err != nil {
			t.warner.Warn("discarding corrupted logs in storage", "key", t.key, "error", err)
			return nil
		}
		entries = append(entries, entry)
	}
	return entries
}

func (t *Transport) persist(entries []chirp.Entry) error {
	raw := make([]map[string]any, 0, len(entries))
	for _, entry := range entries {
		raw = append(raw, entry.Map())
	}

	data, err := t.codec.Marshal(raw)
	if err != nil {
		return err
	}
	return t.store.Set(t.key, data)
}

// JSONSerializer renders an entry in its JSON wire shape.
func JSONSerializer(entry chirp.Entry) (string, error) {
	data, err := json.Marshal(entry)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
