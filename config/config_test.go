package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "fern-api", cfg.AppName)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 10*time.Minute, cfg.CandidateCacheTTL)

	m := cfg.Matching()
	assert.Equal(t, 85.0, m.Threshold)
	assert.Equal(t, 10.0, m.AmbiguityMargin)
	assert.Equal(t, 3, m.BuildYearTolerance)
	assert.Equal(t, 50000, cfg.NameCacheSize)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("MATCH_THRESHOLD", "90")
	t.Setenv("REMATCH_LOCK_TTL", "30s")
	t.Setenv("KAFKA_BATCH_TIMEOUT_MS", "250")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Consumer().Brokers)
	assert.Equal(t, 90.0, cfg.Matching().Threshold)
	assert.Equal(t, 30*time.Second, cfg.Processor().LockTTL)
	assert.Equal(t, 250*time.Millisecond, cfg.Producer().BatchTimeout)
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("FERN_TEST_UNUSED=1\nDB_NAME=fern_from_file\n"), 0o600))
	t.Cleanup(func() {
		_ = os.Unsetenv("DB_NAME")
		_ = os.Unsetenv("FERN_TEST_UNUSED")
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "fern_from_file", cfg.Database().Name)
}

func TestLoad_InvalidThreshold(t *testing.T) {
	t.Setenv("MATCH_THRESHOLD", "150")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorContains(t, err, "MATCH_THRESHOLD")
}

func TestValidate(t *testing.T) {
	cfg := Config{MatchThreshold: 85}
	assert.NoError(t, cfg.Validate())

	cfg.NameCacheSize = -1
	assert.ErrorContains(t, cfg.Validate(), "NAME_CACHE_SIZE")
}
