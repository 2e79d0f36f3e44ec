// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package network implements a transport that buffers entries and posts them
// in batches to an HTTP endpoint. Delivery is best effort: failed batches are
// reported and dropped, never retried.
package network

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/mia-platform/chirp/internal/info"
	"github.com/mia-platform/chirp/pkg/chirp"
)

const (
	// DefaultBatchSize is the buffered entry count that triggers a flush.
	DefaultBatchSize = 10
	// DefaultFlushInterval is the period of the recurring flush.
	DefaultFlushInterval = 5 * time.Second

	contentTypeHeader = "Content-Type"
	userAgentHeader   = "User-Agent"
	jsonContentType   = "application/json"
)

var (
	// ErrMissingURL is returned by New when no target URL is configured.
	ErrMissingURL = errors.New("network transport: missing target url")
)

var _ chirp.Transport = &Transport{}

// DeliveryError describes a batch that could not be delivered. StatusCode is
// zero when no response was received.
type DeliveryError struct {
	StatusCode int
	err        error
}

func (e *DeliveryError) Error() string {
	return "network transport: " + e.err.Error()
}

func (e *DeliveryError) Unwrap() error {
	return e.err
}

// Options configures a Transport. Only URL is required.
type Options struct {
	URL           string
	BatchSize     int
	FlushInterval time.Duration
	// Headers are merged over the default Content-Type: application/json.
	Headers map[string]string
	// Transform builds the request payload from a batch. Defaults to
	// wrapping the batch as {"logs": [...]}.
	Transform func(entries []chirp.Entry) any
	// OnError receives every delivery failure with the dropped batch. When nil
	// failures are reported on the Warner.
	OnError func(err error, entries []chirp.Entry)
	Client  *http.Client
	Warner  chirp.Warner
}

// Stats is a snapshot of the transport counters.
type Stats struct {
	Buffered      int
	SentBatches   int64
	FailedBatches int64
}

// Transport buffers entries in memory and delivers them when the buffer
// reaches the batch size or when the recurring timer fires. The timer runs
// until Destroy or Close is called.
type Transport struct {
	url           string
	batchSize     int
	flushInterval time.Duration
	headers       http.Header
	transform     func([]chirp.Entry) any
	onError       func(error, []chirp.Entry)
	client        *http.Client
	warner        chirp.Warner

	lock   sync.Mutex
	buffer []chirp.Entry
	closed bool

	stop      chan struct{}
	stopped   chan struct{}
	destroyed *atomic.Bool
	dropped   *atomic.Bool
	inflight  sync.WaitGroup

	sent   *atomic.Int64
	failed *atomic.Int64
}

// New validates opts and starts the recurring flush timer.
func New(opts Options) (*Transport, error) {
	if opts.URL == "" {
		return nil, ErrMissingURL
	}
	if _, err := url.ParseRequestURI(opts.URL); err != nil {
		return nil, fmt.Errorf("network transport: %w", err)
	}

	t := &Transport{
		url:           opts.URL,
		batchSize:     opts.BatchSize,
		flushInterval: opts.FlushInterval,
		headers:       http.Header{},
		transform:     opts.Transform,
		onError:       opts.OnError,
		client:        opts.Client,
		warner:        opts.Warner,
		stop:          make(chan struct{}),
		stopped:       make(chan struct{}),
		destroyed:     atomic.NewBool(false),
		dropped:       atomic.NewBool(false),
		sent:          atomic.NewInt64(0),
		failed:        atomic.NewInt64(0),
	}
	t.headers.Set(contentTypeHeader, jsonContentType)
	for key, value := range opts.Headers {
		t.headers.Set(key, value)
	}

	if t.batchSize <= 0 {
		t.batchSize = DefaultBatchSize
	}
	if t.flushInterval <= 0 {
		t.flushInterval = DefaultFlushInterval
	}
	if t.transform == nil {
		t.transform = WrapLogs
	}
	if t.client == nil {
		t.client = http.DefaultClient
	}
	if t.warner == nil {
		t.warner = chirp.DefaultWarner()
	}

	t.buffer = make([]chirp.Entry, 0, t.batchSize)
	go t.run()
	return t, nil
}

// WrapLogs is the default payload transform.
func WrapLogs(entries []chirp.Entry) any {
	return map[string]any{"logs": entries}
}

// Write implements chirp.Transport. It never blocks on delivery. Entries
// written after Close are dropped.
func (t *Transport) Write(entry chirp.Entry) error {
	t.lock.Lock()
	if t.closed {
		t.lock.Unlock()
		if t.dropped.CompareAndSwap(false, true) {
			t.warner.Warn("dropping logs written after close", "url", t.url)
		}
		return nil
	}

	t.buffer = append(t.buffer, entry)
	var batch []chirp.Entry
	if len(t.buffer) >= t.batchSize {
		batch = t.swapLocked()
	}
	t.lock.Unlock()

	if batch != nil {
		go t.deliver(batch)
	}
	return nil
}

// Flush starts the delivery of the buffered entries, if any.
func (t *Transport) Flush() {
	t.lock.Lock()
	batch := t.swapLocked()
	t.lock.Unlock()

	if batch != nil {
		go t.deliver(batch)
	}
}

// Destroy stops the recurring timer and flushes the remaining entries once.
// Deliveries already started complete on their own. Calling it again only
// flushes.
func (t *Transport) Destroy() {
	if t.destroyed.CompareAndSwap(false, true) {
		close(t.stop)
	}
	t.Flush()
}

// Close destroys the transport and waits for every pending delivery.
func (t *Transport) Close() error {
	t.Destroy()
	<-t.stopped

	t.lock.Lock()
	t.closed = true
	t.lock.Unlock()

	t.inflight.Wait()
	return nil
}

// Stats returns the current counters.
func (t *Transport) Stats() Stats {
	t.lock.Lock()
	buffered := len(t.buffer)
	t.lock.Unlock()

	return Stats{
		Buffered:      buffered,
		SentBatches:   t.sent.Load(),
		FailedBatches: t.failed.Load(),
	}
}

func (t *Transport) run() {
	defer close(t.stopped)

	ticker := time.NewTicker(t.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.Flush()
		case <-t.stop:
			return
		}
	}
}

// swapLocked takes the buffered entries and leaves an empty buffer behind.
// The returned batch is counted as in flight until deliver returns. The caller
// must hold the lock.
func (t *Transport) swapLocked() []chirp.Entry {
	if len(t.buffer) == 0 || t.closed {
		return nil
	}

	batch := t.buffer
	t.buffer = make([]chirp.Entry, 0, t.batchSize)
	t.inflight.Add(1)
	return batch
}

func (t *Transport) deliver(batch []chirp.Entry) {
	defer t.inflight.Done()

	err := t.send(batch)
	if err == nil {
		t.sent.Inc()
		return
	}

	t.failed.Inc()
	t.report(err, batch)
}

// report hands a failed batch to the error callback, or to the warner when
// there is none.
func (t *Transport) report(err error, batch []chirp.Entry) {
	if t.onError == nil {
		t.warner.Warn("failed to send logs to network", "url", t.url, "entries", len(batch), "error", err)
		return
	}

	defer func() {
		if r := recover(); r != nil {
			t.warner.Warn("error callback panicked", "url", t.url, "error", err, "panic", r)
		}
	}()
	t.onError(err, batch)
}

// send posts a batch. A panic in the transform or in the client is returned
// as a delivery failure.
func (t *Transport) send(batch []chirp.Entry) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &DeliveryError{err: fmt.Errorf("panic while sending logs: %v", r)}
		}
	}()

	body, err := json.Marshal(t.transform(batch))
	if err != nil {
		return &DeliveryError{err: err}
	}

	request, err := http.NewRequestWithContext(context.Background(), http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return &DeliveryError{err: err}
	}

	request.Header = t.headers.Clone()
	if request.Header.Get(userAgentHeader) == "" {
		request.Header.Set(userAgentHeader, userAgentString())
	}

	resp, err := t.client.Do(request)
	if err != nil {
		return &DeliveryError{err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &DeliveryError{
			StatusCode: resp.StatusCode,
			err:        errors.New("unexpected status code " + strconv.Itoa(resp.StatusCode)),
		}
	}

	return nil
}

// userAgentString returns the User-Agent string sent with every batch.
func userAgentString() string {
	return info.AppName + "/" + info.Version
}
