package storage

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

const maxWatchRetries = 16

// Redis is a Redis-backed Storage. Keys are laid out as
// prefix:namespace:key so several consoles can share one Redis.
type Redis struct {
	redis     redis.UniversalClient
	prefix    string
	namespace string
}

// NewRedis creates a Redis store. An empty namespace maps to "0".
func NewRedis(client redis.UniversalClient, prefix, namespace string) *Redis {
	return &Redis{
		redis:     client,
		prefix:    prefix,
		namespace: normalizeNamespace(namespace),
	}
}

func (s *Redis) key(key string) string {
	return s.prefix + ":" + s.namespace + ":" + key
}

func normalizeNamespace(namespace string) string {
	if namespace == "" {
		return "0"
	}
	return namespace
}

// Get returns the value stored under key.
//
//	Performance: 1 Redis command (GET).
func (s *Redis) Get(ctx context.Context, key string) (string, error) {
	v, err := s.redis.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", unavailable(err)
	}
	return v, nil
}

// Set writes value without expiration.
//
//	Performance: 1 Redis command (SET).
func (s *Redis) Set(ctx context.Context, key, value string) error {
	return unavailable(s.redis.Set(ctx, s.key(key), value, 0).Err())
}

// Remove deletes keys in a single DEL.
func (s *Redis) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, 0, len(keys))
	for _, k := range keys {
		full = append(full, s.key(k))
	}
	return unavailable(s.redis.Del(ctx, full...).Err())
}

// SetMulti writes all values inside MULTI/EXEC.
func (s *Redis) SetMulti(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for k, v := range values {
			pipe.Set(ctx, s.key(k), v, 0)
		}
		return nil
	})
	return unavailable(err)
}

// Update runs fn under WATCH and retries when another writer wins the race.
// Errors returned by fn are passed through unchanged.
func (s *Redis) Update(ctx context.Context, key string, fn UpdateFunc) error {
	full := s.key(key)
	var fnErr error

	txf := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, full).Result()
		exists := true
		if errors.Is(err, redis.Nil) {
			current, exists = "", false
		} else if err != nil {
			return err
		}

		next, err := fn(current, exists)
		if err != nil {
			fnErr = err
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, full, next, 0)
			return nil
		})
		return err
	}

	for i := 0; i < maxWatchRetries; i++ {
		fnErr = nil
		err := s.redis.Watch(ctx, txf, full)
		if err == nil {
			return nil
		}
		if fnErr != nil {
			return fnErr
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return unavailable(err)
	}
	return ErrConflict
}
