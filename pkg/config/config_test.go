package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "localhost:1099", cfg.Directory.Addr)
	assert.Equal(t, 3, cfg.Crawler.RetryCount)
	assert.Equal(t, time.Second, cfg.Crawler.RetryDelay)
	assert.Equal(t, 2*time.Second, cfg.Crawler.EmptyQueueBackoff)
	assert.Equal(t, "Mozilla/5.0 (Googol Bot)", cfg.Crawler.UserAgent)
	assert.Equal(t, 10, cfg.Search.PageSize)
	assert.Equal(t, 3, cfg.Search.MinWordLength)
	assert.Equal(t, "round-robin", cfg.Gateway.Strategy)
	assert.True(t, cfg.Gateway.CacheEnabled)
	assert.True(t, cfg.Persistence.Enabled)
	assert.Equal(t, "data", cfg.Persistence.Dir)
	assert.Equal(t, 30*time.Second, cfg.Persistence.AutosaveInterval)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "googol.yaml")
	yml := `
crawler:
  retryCount: 5
  userAgent: test-agent
gateway:
  strategy: random
persistence:
  dir: /var/lib/googol
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))
	t.Setenv("GOOGOL_PERSISTENCE_DIR", "/tmp/override")
	t.Setenv("GOOGOL_KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Crawler.RetryCount)
	assert.Equal(t, "test-agent", cfg.Crawler.UserAgent)
	assert.Equal(t, "random", cfg.Gateway.Strategy)
	assert.Equal(t, "/tmp/override", cfg.Persistence.Dir)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 10, cfg.Search.PageSize, "untouched defaults survive")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Directory.Backend = "zookeeper"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Search.PageSize = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Crawler.RetryCount = -1
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Gateway.HealthProbeInterval = 0
	assert.ErrorContains(t, cfg.Validate(), "healthProbeInterval")

	cfg = Default()
	cfg.Gateway.StatsInterval = 0
	assert.ErrorContains(t, cfg.Validate(), "statsInterval")

	assert.NoError(t, Default().Validate())
}

func TestPostgresDSN(t *testing.T) {
	dsn := Default().Postgres.DSN()
	assert.Contains(t, dsn, "dbname=googol")
	assert.Contains(t, dsn, "sslmode=disable")
}

func TestShippedConfigLoads(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "configs", "googol.yaml"))
	require.NoError(t, err)
	assert.Equal(t, []string{"https://go.dev"}, cfg.Frontier.Seeds)
	assert.Equal(t, 24*time.Hour, cfg.Postgres.StatsRetention)
	assert.False(t, cfg.Kafka.Enabled)
}
