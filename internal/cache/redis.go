package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// Redis is a Store on a redis server. Keys are namespaced by a prefix so
// Clear only removes this tool's entries.
type Redis struct {
	client *redis.Client
	prefix string
}

// OpenRedis connects and pings the server.
func OpenRedis(ctx context.Context, cfg Config) (*Redis, error) {
	if cfg.RedisAddr == "" {
		return nil, errors.New("redis address is required")
	}
	// Clear deletes by prefix; an empty one would match the whole database.
	if cfg.RedisPrefix == "" {
		return nil, errors.New("redis key prefix is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.RedisAddr,
		Password:    cfg.RedisPassword,
		DB:          cfg.RedisDB,
		DialTimeout: 2 * time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis %s: %w", cfg.RedisAddr, err)
	}
	if cfg.Logger != nil {
		cfg.Logger.WithFields(logrus.Fields{
			"addr": cfg.RedisAddr,
			"db":   cfg.RedisDB,
		}).Debug("connected to redis cache")
	}
	return &Redis{client: client, prefix: cfg.RedisPrefix}, nil
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Clear deletes every key under the prefix.
func (r *Redis) Clear(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 200).Iterator()
	var batch []string
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		err := r.client.Del(ctx, batch...).Err()
		batch = batch[:0]
		return err
	}
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) >= 200 {
			if err := flush(); err != nil {
				return fmt.Errorf("redis clear: %w", err)
			}
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis clear: %w", err)
	}
	if err := flush(); err != nil {
		return fmt.Errorf("redis clear: %w", err)
	}
	return nil
}

func (r *Redis) Close() error { return r.client.Close() }
