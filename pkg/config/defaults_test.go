package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 500000, cfg.Index.BatchSize)
	assert.Equal(t, 1, cfg.Index.Workers)
	assert.Equal(t, BackendBadger, cfg.Store.Backend)
	assert.True(t, cfg.Store.SyncWrites)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"memory needs nothing", func(c *Config) { c.Store = StoreConfig{Backend: BackendMemory} }, true},
		{"zero batch", func(c *Config) { c.Index.BatchSize = 0 }, false},
		{"zero workers", func(c *Config) { c.Index.Workers = 0 }, false},
		{"negative cache", func(c *Config) { c.Index.CacheEntries = -1 }, false},
		{"badger without path", func(c *Config) { c.Store.Path = "" }, false},
		{"s3 without bucket", func(c *Config) { c.Store.Backend = BackendS3 }, false},
		{"s3 with bucket", func(c *Config) { c.Store.Backend = BackendS3; c.Store.Bucket = "b" }, true},
		{"dynamodb without table", func(c *Config) { c.Store.Backend = BackendDynamoDB; c.Store.Table = "" }, false},
		{"unknown backend", func(c *Config) { c.Store.Backend = "neo4j" }, false},
		{"unknown log format", func(c *Config) { c.Log.Format = "xml" }, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scigraph.yaml")
	doc := []byte(`
graph: ontology.yaml
index:
  batch_size: 1000
  exclude: "'Deprecated' in labels"
store:
  backend: memory
`)
	require.NoError(t, os.WriteFile(path, doc, 0600))
	t.Setenv("SCIGRAPH_INDEX_WORKERS", "4")

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, "ontology.yaml", cfg.Graph)
	assert.Equal(t, 1000, cfg.Index.BatchSize)
	assert.Equal(t, 4, cfg.Index.Workers)
	assert.Equal(t, "'Deprecated' in labels", cfg.Index.Exclude)
	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	// Untouched keys keep defaults.
	assert.Equal(t, int64(DefaultCacheEntries), cfg.Index.CacheEntries)
	assert.Equal(t, DefaultTable, cfg.Store.Table)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(viper.New(), filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("SCIGRAPH_INDEX_BATCH_SIZE", "0")
	_, err := Load(viper.New(), "")
	assert.Error(t, err)
}
