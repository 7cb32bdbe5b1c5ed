// Package cache memoizes serialized analysis results by content key.
// Backends: in-process memory, an embedded badger database and redis.
package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Store is a byte-value cache with per-entry TTL. A ttl of zero never expires.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Clear(ctx context.Context) error
	Close() error
}

// Backend names accepted by Open.
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendBadger = "badger"
	BackendRedis  = "redis"
)

// Config selects and configures a backend.
type Config struct {
	Backend string
	// Dir is the badger directory.
	Dir string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	Logger logrus.FieldLogger
}

// Open returns the configured store, or nil for the none backend.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendNone:
		return nil, nil
	case BackendMemory:
		return NewMemory(), nil
	case BackendBadger:
		b, err := OpenBadger(cfg.Dir, cfg.Logger)
		if err != nil {
			return nil, err
		}
		return b, nil
	case BackendRedis:
		r, err := OpenRedis(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return r, nil
	}
	return nil, fmt.Errorf("unknown cache backend %q (use none|memory|badger|redis)", cfg.Backend)
}

type memEntry struct {
	value   []byte
	expires time.Time
}

// Memory is a process-local Store.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memEntry
	now     func() time.Time
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{entries: map[string]memEntry{}, now: time.Now}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		delete(m.entries, key)
		return nil, false, nil
	}
	return append([]byte(nil), e.value...), true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := memEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.entries[key] = e
	return nil
}

func (m *Memory) Clear(context.Context) error {
	m.mu.Lock()
	m.entries = map[string]memEntry{}
	m.mu.Unlock()
	return nil
}

// Len reports the number of stored entries, expired or not.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Memory) Close() error { return nil }
