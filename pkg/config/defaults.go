// Package config defines default configuration for the graph, the
// reachability index and its storage backend.
package config

import (
	"fmt"
	"strings"
)

// IndexConfig tunes reachability index construction and queries.
type IndexConfig struct {
	// BatchSize is the number of node records written per storage commit.
	BatchSize int `mapstructure:"batch_size"`
	// Workers is the number of hub sweeps run concurrently. 1 keeps the
	// reference single-threaded schedule.
	Workers int `mapstructure:"workers"`
	// CacheEntries bounds the decoded-record cache used by queries. 0 disables it.
	CacheEntries int64 `mapstructure:"cache_entries"`
	// Exclude is a CEL expression; nodes for which it is true are hidden
	// from the index.
	Exclude string `mapstructure:"exclude"`
}

// StoreConfig selects and configures the durable list store.
type StoreConfig struct {
	// Backend is one of memory, badger, local, s3, dynamodb.
	Backend string `mapstructure:"backend"`
	// Path is the directory for badger and local backends.
	Path string `mapstructure:"path"`
	// Bucket and Prefix locate the index in S3.
	Bucket string `mapstructure:"bucket"`
	Prefix string `mapstructure:"prefix"`
	// Table is the DynamoDB table name.
	Table string `mapstructure:"table"`
	// Region and Endpoint configure the AWS SDK. Endpoint overrides the
	// service URL (LocalStack).
	Region   string `mapstructure:"region"`
	Endpoint string `mapstructure:"endpoint"`
	// SyncWrites makes badger fsync every commit.
	SyncWrites bool `mapstructure:"sync_writes"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig controls OpenTelemetry export.
type TelemetryConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Disabled bool   `mapstructure:"disabled"`
}

// Config is the full application configuration.
type Config struct {
	// Graph is the path of the YAML graph fixture.
	Graph     string          `mapstructure:"graph"`
	Index     IndexConfig     `mapstructure:"index"`
	Store     StoreConfig     `mapstructure:"store"`
	Log       LogConfig       `mapstructure:"log"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// Backends.
const (
	BackendMemory   = "memory"
	BackendBadger   = "badger"
	BackendLocal    = "local"
	BackendS3       = "s3"
	BackendDynamoDB = "dynamodb"
)

// Defaults.
const (
	DefaultBatchSize    = 500000
	DefaultCacheEntries = 100000
	DefaultRegion       = "us-east-1"
	DefaultStorePath    = ".scigraph/index"
	DefaultTable        = "scigraph-reachability"
	DefaultPrefix       = "reachability"
)

// DefaultIndexConfig returns default index tuning.
func DefaultIndexConfig() IndexConfig {
	return IndexConfig{
		BatchSize:    DefaultBatchSize,
		Workers:      1,
		CacheEntries: DefaultCacheEntries,
	}
}

// DefaultStoreConfig returns a durable local badger store.
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		Backend:    BackendBadger,
		Path:       DefaultStorePath,
		Prefix:     DefaultPrefix,
		Table:      DefaultTable,
		Region:     DefaultRegion,
		SyncWrites: true,
	}
}

// Default returns the complete default configuration.
func Default() Config {
	return Config{
		Index: DefaultIndexConfig(),
		Store: DefaultStoreConfig(),
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate rejects configurations the index cannot run with.
func (c Config) Validate() error {
	if c.Index.BatchSize <= 0 {
		return fmt.Errorf("index.batch_size must be positive, got %d", c.Index.BatchSize)
	}
	if c.Index.Workers <= 0 {
		return fmt.Errorf("index.workers must be positive, got %d", c.Index.Workers)
	}
	if c.Index.CacheEntries < 0 {
		return fmt.Errorf("index.cache_entries must not be negative, got %d", c.Index.CacheEntries)
	}

	switch strings.ToLower(c.Store.Backend) {
	case BackendMemory:
	case BackendBadger, BackendLocal:
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for the %s backend", c.Store.Backend)
		}
	case BackendS3:
		if c.Store.Bucket == "" {
			return fmt.Errorf("store.bucket is required for the s3 backend")
		}
	case BackendDynamoDB:
		if c.Store.Table == "" {
			return fmt.Errorf("store.table is required for the dynamodb backend")
		}
	default:
		return fmt.Errorf("unknown store.backend %q", c.Store.Backend)
	}

	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("unknown log.format %q", c.Log.Format)
	}
	return nil
}
