package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseStore runs the behaviour every backend shares.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "a", []byte("alpha"), 0))
	require.NoError(t, s.Set(ctx, "b", []byte("beta"), time.Hour))
	v, ok, err := s.Get(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "alpha", string(v))

	require.NoError(t, s.Set(ctx, "a", []byte("again"), 0))
	v, _, _ = s.Get(ctx, "a")
	assert.Equal(t, "again", string(v))

	require.NoError(t, s.Clear(ctx))
	_, ok, err = s.Get(ctx, "b")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestMemoryExpiry(t *testing.T) {
	m := NewMemory()
	now := time.Unix(1000, 0)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", []byte("v"), time.Minute))
	_, ok, _ := m.Get(ctx, "k")
	assert.True(t, ok)

	now = now.Add(time.Minute)
	_, ok, _ = m.Get(ctx, "k")
	assert.False(t, ok)
	assert.Zero(t, m.Len())
}

func TestMemoryReturnsCopies(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	buf := []byte("abc")
	require.NoError(t, m.Set(ctx, "k", buf, 0))
	buf[0] = 'z'
	v, _, _ := m.Get(ctx, "k")
	assert.Equal(t, "abc", string(v))
}

func TestBadgerInMemory(t *testing.T) {
	b, err := OpenBadger("", nil)
	require.NoError(t, err)
	defer b.Close()
	exerciseStore(t, b)
}

func TestBadgerPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	b, err := OpenBadger(dir, nil)
	require.NoError(t, err)
	require.NoError(t, b.Set(ctx, "fp", []byte("result"), time.Hour))
	require.NoError(t, b.Close())

	b, err = OpenBadger(dir, nil)
	require.NoError(t, err)
	defer b.Close()
	v, ok, err := b.Get(ctx, "fp")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "result", string(v))
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("CSVHEALTH_TEST_REDIS")
	if addr == "" {
		t.Skip("CSVHEALTH_TEST_REDIS not set")
	}
	r, err := OpenRedis(context.Background(), Config{RedisAddr: addr, RedisPrefix: "csvhealth-test:"})
	if err != nil {
		t.Skipf("redis unavailable: %v", err)
	}
	defer r.Close()
	exerciseStore(t, r)
}

func TestOpenBackends(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, Config{Backend: "none"})
	require.NoError(t, err)
	assert.Nil(t, s)

	s, err = Open(ctx, Config{Backend: "Memory"})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	s, err = Open(ctx, Config{Backend: BackendBadger, Dir: t.TempDir()})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = Open(ctx, Config{Backend: BackendRedis})
	assert.Error(t, err)
	_, err = Open(ctx, Config{Backend: "memcached"})
	assert.Error(t, err)
}

func TestOpenRedisRequiresPrefix(t *testing.T) {
	_, err := OpenRedis(context.Background(), Config{RedisAddr: "127.0.0.1:1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prefix")
}
