// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mia-platform/chirp/pkg/chirp"
	"github.com/mia-platform/chirp/pkg/codec"
	"github.com/mia-platform/chirp/pkg/storage"
	"github.com/mia-platform/chirp/pkg/storage/file"
	"github.com/mia-platform/chirp/pkg/storage/leveldb"
	"github.com/mia-platform/chirp/pkg/storage/memory"
	"github.com/mia-platform/chirp/pkg/storage/redis"
	"github.com/mia-platform/chirp/pkg/transport/durable"
	"github.com/mia-platform/chirp/pkg/transport/metrics"
	"github.com/mia-platform/chirp/pkg/transport/network"
)

// Outputs are the writers and side channel handed to the built transports.
type Outputs struct {
	Stdout io.Writer
	Stderr io.Writer
	Warner chirp.Warner
}

// Runtime is a built logger together with the transports that expose extra
// operations. Transports that are not configured are nil.
type Runtime struct {
	Logger  *chirp.Logger
	Durable *durable.Transport
	Network *network.Transport
	Metrics *metrics.Transport
}

// Close flushes and releases every transport of the runtime.
func (r *Runtime) Close() error {
	return r.Logger.Close()
}

// Build creates the logger described by the configuration.
func (c *Config) Build(outputs Outputs) (*Runtime, error) {
	runtime := new(Runtime)
	transports := make([]chirp.Transport, 0, 4)

	if c.Console.Enabled {
		transports = append(transports, chirp.NewConsoleTransport(chirp.ConsoleOptions{
			AsObject: c.Console.AsObject,
			Sinks:    consoleSinks(outputs),
			Warner:   outputs.Warner,
		}))
	}

	if c.Metrics.Enabled {
		labels := prometheus.Labels{}
		if c.Name != "" {
			labels["logger"] = c.Name
		}
		runtime.Metrics = metrics.New(labels)
		transports = append(transports, runtime.Metrics)
	}

	if c.Durable.Enabled {
		transport, err := c.NewDurable(outputs.Warner)
		if err != nil {
			closeAll(transports)
			return nil, err
		}
		runtime.Durable = transport
		transports = append(transports, transport)
	}

	if c.Network.URL != "" {
		transport, err := network.New(network.Options{
			URL:           c.Network.URL,
			BatchSize:     c.Network.BatchSize,
			FlushInterval: c.Network.FlushInterval,
			Headers:       c.Network.Headers,
			Warner:        outputs.Warner,
		})
		if err != nil {
			closeAll(transports)
			return nil, err
		}
		runtime.Network = transport
		transports = append(transports, transport)
	}

	runtime.Logger = chirp.New(chirp.Options{
		Level:      c.LoggerLevel(),
		Name:       c.Name,
		Base:       c.Base,
		Transports: transports,
		Browser:    &chirp.BrowserOptions{AsObject: c.Console.AsObject},
		Warner:     outputs.Warner,
	})
	return runtime, nil
}

// NewDurable opens the configured storage backend and returns a durable
// transport on top of it, whether or not the durable transport is enabled.
func (c *Config) NewDurable(warner chirp.Warner) (*durable.Transport, error) {
	entryCodec, err := codec.FromName(c.Durable.Codec)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotValid, err)
	}

	store, err := c.Durable.openStorage()
	if err != nil {
		return nil, err
	}

	return durable.New(store, durable.Options{
		Key:        c.Durable.Key,
		MaxEntries: c.Durable.MaxEntries,
		Codec:      entryCodec,
		Warner:     warner,
	}), nil
}

func (d DurableConfig) openStorage() (storage.Storage, error) {
	switch strings.ToLower(d.Backend) {
	case BackendMemory:
		return memory.New(), nil
	case BackendFile:
		return file.NewOS(d.Path)
	case BackendLevelDB:
		return leveldb.Open(d.Path)
	case BackendRedis:
		return redis.NewFromAddr(d.RedisAddr, redis.Options{KeyPrefix: d.RedisPrefix}), nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownBackend, d.Backend)
	}
}

func consoleSinks(outputs Outputs) chirp.ConsoleSinks {
	var sinks chirp.ConsoleSinks
	if outputs.Stdout != nil {
		sinks.Debug = chirp.WriterSink(outputs.Stdout)
		sinks.Info = chirp.WriterSink(outputs.Stdout)
	}
	if outputs.Stderr != nil {
		sinks.Warn = chirp.WriterSink(outputs.Stderr)
		sinks.Error = chirp.WriterSink(outputs.Stderr)
	}
	return sinks
}

func closeAll(transports []chirp.Transport) {
	for _, transport := range transports {
		if closer, ok := transport.(io.Closer); ok {
			_ = closer.Close()
		}
	}
}
