// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package config loads the logger configuration of the chirp command line tool
// from a YAML file overlaid with CHIRP_ prefixed environment variables, and
// builds the chirp logger and transports it describes.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/mia-platform/chirp/pkg/chirp"
	"github.com/mia-platform/chirp/pkg/transport/durable"
	"github.com/mia-platform/chirp/pkg/transport/network"
)

const (
	envPrefix = "CHIRP_"

	BackendMemory  = "memory"
	BackendFile    = "file"
	BackendLevelDB = "leveldb"
	BackendRedis   = "redis"

	defaultStoragePath = ".chirp"
)

var (
	ErrParsing        = errors.New("error parsing configuration")
	ErrNotValid       = errors.New("configuration not valid")
	ErrUnknownBackend = errors.New("unknown storage backend")
)

// Config describes a chirp logger and its transports.
type Config struct {
	Level string         `yaml:"level" env:"LEVEL"`
	Name  string         `yaml:"name" env:"NAME"`
	Base  map[string]any `yaml:"base"`

	Console ConsoleConfig `yaml:"console" envPrefix:"CONSOLE_"`
	Durable DurableConfig `yaml:"durable" envPrefix:"DURABLE_"`
	Network NetworkConfig `yaml:"network" envPrefix:"NETWORK_"`
	Metrics MetricsConfig `yaml:"metrics" envPrefix:"METRICS_"`
}

// ConsoleConfig configures the console transport.
type ConsoleConfig struct {
	Enabled  bool `yaml:"enabled" env:"ENABLED"`
	AsObject bool `yaml:"asObject" env:"AS_OBJECT"`
}

// DurableConfig configures the durable transport and its storage backend.
type DurableConfig struct {
	Enabled     bool   `yaml:"enabled" env:"ENABLED"`
	Backend     string `yaml:"backend" env:"BACKEND"`
	Path        string `yaml:"path" env:"PATH"`
	RedisAddr   string `yaml:"redisAddr" env:"REDIS_ADDR"`
	RedisPrefix string `yaml:"redisPrefix" env:"REDIS_PREFIX"`
	Key         string `yaml:"key" env:"KEY"`
	MaxEntries  int    `yaml:"maxEntries" env:"MAX_ENTRIES"`
	Codec       string `yaml:"codec" env:"CODEC"`
}

// NetworkConfig configures the network transport. It is enabled by a non empty URL.
type NetworkConfig struct {
	URL           string            `yaml:"url" env:"URL"`
	BatchSize     int               `yaml:"batchSize" env:"BATCH_SIZE"`
	FlushInterval time.Duration     `yaml:"flushInterval" env:"FLUSH_INTERVAL"`
	Headers       map[string]string `yaml:"headers" env:"HEADERS"`
}

// MetricsConfig enables the prometheus counting transport.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled" env:"ENABLED"`
}

// Default returns the configuration used when nothing is set: an INFO logger
// writing to the console, with the durable store on the local filesystem ready
// for the store commands.
func Default() *Config {
	return &Config{
		Level:   chirp.INFO.String(),
		Console: ConsoleConfig{Enabled: true},
		Durable: DurableConfig{
			Backend:    BackendFile,
			Path:       defaultStoragePath,
			Key:        durable.DefaultKey,
			MaxEntries: durable.DefaultMaxEntries,
		},
		Network: NetworkConfig{
			BatchSize:     network.DefaultBatchSize,
			FlushInterval: network.DefaultFlushInterval,
		},
	}
}

// Load returns the default configuration overridden by the YAML file at path,
// when not empty, and then by the environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer file.Close()

		if err := cfg.decode(file); err != nil {
			return nil, fmt.Errorf("%w %q: %w", ErrParsing, path, err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: envPrefix}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParsing, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(reader io.Reader) error {
	decoder := yaml.NewDecoder(reader)
	decoder.KnownFields(true)

	err := decoder.Decode(c)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (c *Config) validate() error {
	problems := make([]string, 0)

	if c.Level != "" {
		if _, err := chirp.ParseLevel(c.Level); err != nil {
			problems = append(problems, err.Error())
		}
	}

	switch strings.ToLower(c.Durable.Backend) {
	case BackendMemory:
	case BackendFile, BackendLevelDB:
		if c.Durable.Path == "" {
			problems = append(problems, "durable path is required for the "+c.Durable.Backend+" backend")
		}
	case BackendRedis:
		if c.Durable.RedisAddr == "" {
			problems = append(problems, "durable redisAddr is required for the redis backend")
		}
	default:
		problems = append(problems, fmt.Sprintf("%s %q", ErrUnknownBackend, c.Durable.Backend))
	}

	if c.Durable.MaxEntries < 0 {
		problems = append(problems, "durable maxEntries must not be negative")
	}
	if c.Network.BatchSize < 0 {
		problems = append(problems, "network batchSize must not be negative")
	}
	if c.Network.FlushInterval < 0 {
		problems = append(problems, "network flushInterval must not be negative")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrNotValid, strings.Join(problems, ", "))
	}
	return nil
}

// LoggerLevel returns the configured minimum level.
func (c *Config) LoggerLevel() chirp.Level {
	return chirp.LevelFromString(c.Level)
}
