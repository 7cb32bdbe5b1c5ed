package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "medium", c.Sensitivity)
	assert.Equal(t, "drop", c.Imputation)
	assert.Equal(t, int64(42), c.Seed)
	assert.Equal(t, 100, c.Trees)
	assert.Equal(t, 256, c.MaxSamples)
	assert.Equal(t, 100000, c.SampleThreshold)
	assert.Equal(t, "none", c.CacheBackend)
	assert.Equal(t, filepath.Join(home, ".csvhealth", "cache"), c.CacheDir)
	assert.Equal(t, "csvhealth:", c.RedisPrefix)
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("imputation: mean\ntrees: 50\n"), 0o644))
	t.Setenv("CSVHEALTH_TREES", "75")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "mean", c.Imputation)
	assert.Equal(t, 75, c.Trees)
}

func TestSetGetAndSaveRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	require.NoError(t, err)

	require.NoError(t, c.Set("sensitivity", "HIGH"))
	require.NoError(t, c.Set("contamination", "0.07"))
	require.NoError(t, c.Set("seed", "7"))
	require.NoError(t, c.Set("sample", "true"))
	require.NoError(t, c.Set("cache_backend", "badger"))
	assert.Error(t, c.Set("cache_backend", "memcached"))
	assert.Error(t, c.Set("trees", "many"))
	assert.Error(t, c.Set("api_key", "x"))

	v, err := c.Get("contamination")
	require.NoError(t, err)
	assert.Equal(t, "0.07", v)

	require.NoError(t, Save(c, ""))
	again, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "high", again.Sensitivity)
	assert.Equal(t, 0.07, again.Contamination)
	assert.Equal(t, int64(7), again.Seed)
	assert.True(t, again.Sample)
	assert.Equal(t, "badger", again.CacheBackend)
}

func TestKeysSorted(t *testing.T) {
	keys := Keys()
	require.NotEmpty(t, keys)
	assert.Equal(t, "cache_backend", keys[0])
	assert.Contains(t, keys, "redis_addr")
}
