// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package chirp

import (
	"sync"
)

type recorder struct {
	lock    sync.Mutex
	entries []Entry
}

func (r *recorder) Write(entry Entry) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

func (r *recorder) Entries() []Entry {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]Entry(nil), r.entries...)
}

type recordingWarner struct {
	lock     sync.Mutex
	messages []string
}

func (w *recordingWarner) Warn(msg string, _ ...any) {
	w.lock.Lock()
	defer w.lock.Unlock()
	w.messages = append(w.messages, msg)
}

func (w *recordingWarner) Messages() []string {
	w.lock.Lock()
	defer w.lock.Unlock()
	return append([]string(nil), w.messages...)
}
