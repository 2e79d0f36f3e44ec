// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package network

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mia-platform/chirp/pkg/chirp"
	"github.com/mia-platform/chirp/pkg/transport/fake"
)

const neverFlush = time.Hour

type received struct {
	header http.Header
	body   []byte
}

func newTestServer(t *testing.T, status int) (*httptest.Server, <-chan received) {
	t.Helper()

	requests := make(chan received, 16)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		requests <- received{header: r.Header.Clone(), body: body}
		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)
	return server, requests
}

func waitRequest(t *testing.T, requests <-chan received) received {
	t.Helper()

	select {
	case request := <-requests:
		return request
	case <-time.After(5 * time.Second):
		require.FailNow(t, "no delivery received")
		return received{}
	}
}

func assertNoRequest(t *testing.T, requests <-chan received, wait time.Duration) {
	t.Helper()

	select {
	case request := <-requests:
		assert.Failf(t, "unexpected delivery", "body: %s", request.body)
	case <-time.After(wait):
	}
}

func decodeLogs(t *testing.T, body []byte) []chirp.Entry {
	t.Helper()

	var payload struct {
		Logs []chirp.Entry `json:"logs"`
	}
	require.NoError(t, json.Unmarshal(body, &payload))
	return payload.Logs
}

func entry(msg string) chirp.Entry {
	return chirp.Entry{Level: chirp.INFO, Time: 1700000000000, Msg: msg}
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	_, err := New(Options{})
	assert.ErrorIs(t, err, ErrMissingURL)

	_, err = New(Options{URL: "not a url"})
	assert.Error(t, err)

	transport, err := New(Options{URL: "http://localhost:3000/logs", Warner: fake.NewWarner()})
	require.NoError(t, err)
	t.Cleanup(transport.Destroy)

	assert.Equal(t, DefaultBatchSize, transport.batchSize)
	assert.Equal(t, DefaultFlushInterval, transport.flushInterval)
	assert.Equal(t, http.Header{"Content-Type": []string{"application/json"}}, transport.headers)
	assert.Equal(t, http.DefaultClient, transport.client)
}

func TestBatchSizeTriggersOneDelivery(t *testing.T) {
	t.Parallel()

	server, requests := newTestServer(t, http.StatusNoContent)
	transport, err := New(Options{URL: server.URL, BatchSize: 3, FlushInterval: neverFlush, Warner: fake.NewWarner()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = transport.Close() })

	for _, msg := range []string{"a", "b", "c"} {
		require.NoError(t, transport.Write(entry(msg)))
	}
	assert.Equal(t, 0, transport.Stats().Buffered)

	request := waitRequest(t, requests)
	logs := decodeLogs(t, request.body)
	require.Len(t, logs, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{logs[0].Msg, logs[1].Msg, logs[2].Msg})
	assert.Equal(t, "application/json", request.header.Get("Content-Type"))
	assert.Equal(t, "chirp/DEV", request.header.Get("User-Agent"))

	assertNoRequest(t, requests, 100*time.Millisecond)
}

func TestDestroyFlushesRemainingEntries(t *testing.T) {
	t.Parallel()

	server, requests := newTestServer(t, http.StatusOK)
	transport, err := New(Options{URL: server.URL, BatchSize: 10, FlushInterval: neverFlush, Warner: fake.NewWarner()})
	require.NoError(t, err)

	require.NoError(t, transport.Write(entry("one")))
	require.NoError(t, transport.Write(entry("two")))
	assert.Equal(t, 2, transport.Stats().Buffered)
	assertNoRequest(t, requests, 50*time.Millisecond)

	transport.Destroy()
	logs := decodeLogs(t, waitRequest(t, requests).body)
	require.Len(t, logs, 2)
	assert.Equal(t, "one", logs[0].Msg)
	assert.Equal(t, "two", logs[1].Msg)

	transport.Destroy()
	require.NoError(t, transport.Close())
	assertNoRequest(t, requests, 50*time.Millisecond)
	assert.Equal(t, int64(1), transport.Stats().SentBatches)
}

func TestTimerFlush(t *testing.T) {
	t.Parallel()

	server, requests := newTestServer(t, http.StatusAccepted)
	transport, err := New(Options{URL: server.URL, BatchSize: 100, FlushInterval: 20 * time.Millisecond, Warner: fake.NewWarner()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = transport.Close() })

	require.NoError(t, transport.Write(entry("tick")))
	logs := decodeLogs(t, waitRequest(t, requests).body)
	require.Len(t, logs, 1)
	assert.Equal(t, "tick", logs[0].Msg)
}

func TestEmptyFlushIsNoop(t *testing.T) {
	t.Parallel()

	server, requests := newTestServer(t, http.StatusOK)
	transport, err := New(Options{URL: server.URL, FlushInterval: 10 * time.Millisecond, Warner: fake.NewWarner()})
	require.NoError(t, err)

	transport.Flush()
	assertNoRequest(t, requests, 60*time.Millisecond)
	require.NoError(t, transport.Close())
	assert.Equal(t, Stats{}, transport.Stats())
}

func TestHeadersAndTransform(t *testing.T) {
	t.Parallel()

	server, requests := newTestServer(t, http.StatusOK)
	transport, err := New(Options{
		URL:           server.URL,
		BatchSize:     1,
		FlushInterval: neverFlush,
		Headers: map[string]string{
			"Authorization": "Bearer token",
			"Content-Type":  "application/x-ndjson",
		},
		Transform: func(entries []chirp.Entry) any {
			messages := make([]string, 0, len(entries))
			for _, e := range entries {
				messages = append(messages, e.Msg)
			}
			return map[string]any{"app": "web", "messages": messages}
		},
		Warner: fake.NewWarner(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = transport.Close() })

	require.NoError(t, transport.Write(entry("custom")))
	request := waitRequest(t, requests)
	assert.JSONEq(t, `{"app":"web","messages":["custom"]}`, string(request.body))
	assert.Equal(t, "Bearer token", request.header.Get("Authorization"))
	assert.Equal(t, "application/x-ndjson", request.header.Get("Content-Type"))
}

func TestHeaderOverridesIgnoreCase(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		headers             map[string]string
		expectedContentType string
		expectedUserAgent   string
	}{
		"lower case content type replaces the default": {
			headers:             map[string]string{"content-type": "application/x-ndjson"},
			expectedContentType: "application/x-ndjson",
			expectedUserAgent:   userAgentString(),
		},
		"upper case content type replaces the default": {
			headers:             map[string]string{"CONTENT-TYPE": "text/plain"},
			expectedContentType: "text/plain",
			expectedUserAgent:   userAgentString(),
		},
		"custom user agent": {
			headers:             map[string]string{"user-agent": "browser/1.0"},
			expectedContentType: "application/json",
			expectedUserAgent:   "browser/1.0",
		},
	}

	for name, test := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			server, requests := newTestServer(t, http.StatusOK)
			// header merge must not depend on map iteration order
			for range 20 {
				transport, err := New(Options{
					URL:           server.URL,
					BatchSize:     1,
					FlushInterval: neverFlush,
					Headers:       test.headers,
					Warner:        fake.NewWarner(),
				})
				require.NoError(t, err)

				require.NoError(t, transport.Write(entry("header")))
				request := waitRequest(t, requests)
				require.NoError(t, transport.Close())

				assert.Equal(t, []string{test.expectedContentType}, request.header.Values("Content-Type"))
				assert.Equal(t, test.expectedUserAgent, request.header.Get("User-Agent"))
			}
		})
	}
}

func TestPanicsDoNotEscapeDelivery(t *testing.T) {
	t.Parallel()

	t.Run("panicking transform reaches the error callback", func(t *testing.T) {
		t.Parallel()

		server, _ := newTestServer(t, http.StatusOK)
		failures := make(chan error, 1)
		batches := make(chan []chirp.Entry, 1)
		transport, err := New(Options{
			URL:           server.URL,
			BatchSize:     1,
			FlushInterval: neverFlush,
			Transform:     func([]chirp.Entry) any { panic("bad transform") },
			OnError: func(err error, entries []chirp.Entry) {
				failures <- err
				batches <- entries
			},
			Warner: fake.NewWarner(),
		})
		require.NoError(t, err)

		require.NoError(t, transport.Write(entry("boom")))
		require.NoError(t, transport.Close())

		err = <-failures
		var deliveryErr *DeliveryError
		require.ErrorAs(t, err, &deliveryErr)
		assert.Zero(t, deliveryErr.StatusCode)
		assert.ErrorContains(t, err, "bad transform")
		assert.Equal(t, []chirp.Entry{entry("boom")}, <-batches)
		assert.Equal(t, int64(1), transport.Stats().FailedBatches)
	})

	t.Run("panicking transform without callback is warned", func(t *testing.T) {
		t.Parallel()

		server, _ := newTestServer(t, http.StatusOK)
		warner := fake.NewWarner()
		transport, err := New(Options{
			URL:           server.URL,
			BatchSize:     1,
			FlushInterval: neverFlush,
			Transform:     func([]chirp.Entry) any { panic("bad transform") },
			Warner:        warner,
		})
		require.NoError(t, err)

		require.NoError(t, transport.Write(entry("boom")))
		require.NoError(t, transport.Close())
		assert.Equal(t, []string{"failed to send logs to network"}, warner.Messages())
	})

	t.Run("panicking error callback is warned", func(t *testing.T) {
		t.Parallel()

		server, _ := newTestServer(t, http.StatusBadGateway)
		warner := fake.NewWarner()
		transport, err := New(Options{
			URL:           server.URL,
			BatchSize:     1,
			FlushInterval: neverFlush,
			OnError:       func(error, []chirp.Entry) { panic("bad callback") },
			Warner:        warner,
		})
		require.NoError(t, err)

		require.NoError(t, transport.Write(entry("boom")))
		require.NoError(t, transport.Close())
		assert.Equal(t, []string{"error callback panicked"}, warner.Messages())
	})
}

func TestWriteAfterCloseIsDropped(t *testing.T) {
	t.Parallel()

	server, requests := newTestServer(t, http.StatusOK)
	warner := fake.NewWarner()
	transport, err := New(Options{
		URL:           server.URL,
		BatchSize:     1,
		FlushInterval: neverFlush,
		Warner:        warner,
	})
	require.NoError(t, err)
	require.NoError(t, transport.Close())

	require.NoError(t, transport.Write(entry("late")))
	require.NoError(t, transport.Write(entry("later")))
	transport.Flush()
	require.NoError(t, transport.Close())

	assert.Empty(t, requests)
	assert.Equal(t, Stats{}, transport.Stats())
	assert.Equal(t, []string{"dropping logs written after close"}, warner.Messages())
}

func TestDeliveryFailures(t *testing.T) {
	t.Parallel()

	t.Run("error callback receives status failures and the batch", func(t *testing.T) {
		t.Parallel()

		server, requests := newTestServer(t, http.StatusInternalServerError)
		failures := make(chan []chirp.Entry, 1)
		var failure error
		var lock sync.Mutex
		transport, err := New(Options{
			URL:           server.URL,
			BatchSize:     2,
			FlushInterval: neverFlush,
			OnError: func(err error, entries []chirp.Entry) {
				lock.Lock()
				failure = err
				lock.Unlock()
				failures <- entries
			},
			Warner: fake.NewWarner(),
		})
		require.NoError(t, err)

		require.NoError(t, transport.Write(entry("x")))
		require.NoError(t, transport.Write(entry("y")))
		waitRequest(t, requests)

		select {
		case failed := <-failures:
			require.Len(t, failed, 2)
			assert.Equal(t, "x", failed[0].Msg)
		case <-time.After(5 * time.Second):
			require.FailNow(t, "error callback not invoked")
		}

		require.NoError(t, transport.Close())
		lock.Lock()
		defer lock.Unlock()
		var deliveryErr *DeliveryError
		require.ErrorAs(t, failure, &deliveryErr)
		assert.Equal(t, http.StatusInternalServerError, deliveryErr.StatusCode)
		assert.Equal(t, int64(1), transport.Stats().FailedBatches)

		assertNoRequest(t, requests, 50*time.Millisecond)
	})

	t.Run("unreachable endpoint without callback warns", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.NotFoundHandler())
		endpoint := server.URL
		server.Close()

		warner := fake.NewWarner()
		transport, err := New(Options{URL: endpoint, BatchSize: 1, FlushInterval: neverFlush, Warner: warner})
		require.NoError(t, err)

		assert.NotPanics(t, func() { require.NoError(t, transport.Write(entry("lost"))) })
		require.NoError(t, transport.Close())

		assert.Equal(t, []string{"failed to send logs to network"}, warner.Messages())
		assert.Equal(t, Stats{FailedBatches: 1}, transport.Stats())
	})

	t.Run("unserializable payload", func(t *testing.T) {
		t.Parallel()

		var got error
		transport, err := New(Options{
			URL:           "http://localhost:1/logs",
			BatchSize:     1,
			FlushInterval: neverFlush,
			Transform:     func([]chirp.Entry) any { return func() {} },
			OnError:       func(err error, _ []chirp.Entry) { got = err },
			Warner:        fake.NewWarner(),
		})
		require.NoError(t, err)

		require.NoError(t, transport.Write(entry("z")))
		require.NoError(t, transport.Close())

		var deliveryErr *DeliveryError
		require.ErrorAs(t, got, &deliveryErr)
		assert.Zero(t, deliveryErr.StatusCode)
		assert.ErrorContains(t, got, "network transport:")
	})
}

func TestConcurrentWritesAreDeliveredOnce(t *testing.T) {
	t.Parallel()

	var lock sync.Mutex
	seen := map[string]int{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var payload struct {
			Logs []chirp.Entry `json:"logs"`
		}
		if err := json.Unmarshal(body, &payload); err == nil {
			lock.Lock()
			for _, e := range payload.Logs {
				seen[e.Msg]++
			}
			lock.Unlock()
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(server.Close)

	transport, err := New(Options{URL: server.URL, BatchSize: 7, FlushInterval: 5 * time.Millisecond, Warner: fake.NewWarner()})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for worker := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 50 {
				_ = transport.Write(entry(string(rune('a'+worker)) + "-" + string(rune('0'+i%10)) + string(rune('0'+i/10))))
			}
		}()
	}
	wg.Wait()
	require.NoError(t, transport.Close())

	lock.Lock()
	defer lock.Unlock()
	assert.Len(t, seen, 400)
	for msg, count := range seen {
		assert.Equal(t, 1, count, msg)
	}
}

func TestDeliveryErrorUnwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	err := &DeliveryError{err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "network transport: boom", err.Error())
}
