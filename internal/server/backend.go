package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/goAdmin/storage"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// Backend is an opened storage backend plus whatever must be closed with it.
type Backend struct {
	Name  string
	Store storage.Storage
	// Redis is set for the redis and miniredis backends.
	Redis   redis.UniversalClient
	closers []func() error
}

// Close releases the backend's connections and embedded servers.
func (b *Backend) Close() error {
	if b == nil {
		return nil
	}
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}

// OpenBackend opens the configured storage backend. Redis backends are
// pinged before use.
func OpenBackend(ctx context.Context, cfg StorageConfig, session SessionConfig) (*Backend, error) {
	b := &Backend{Name: cfg.Backend}

	switch cfg.Backend {
	case BackendMemory:
		b.Store = storage.NewMemory()

	case BackendMiniredis:
		mr, err := miniredis.Run()
		if err != nil {
			return nil, fmt.Errorf("start miniredis: %w", err)
		}
		b.closers = append(b.closers, func() error { mr.Close(); return nil })
		if err := b.openRedis(ctx, &redis.Options{Addr: mr.Addr()}, session); err != nil {
			_ = b.Close()
			return nil, err
		}

	case BackendRedis:
		opts := &redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}
		if err := b.openRedis(ctx, opts, session); err != nil {
			_ = b.Close()
			return nil, err
		}

	case BackendSQLite:
		db, err := storage.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("sqlite handle: %w", err)
		}
		b.closers = append(b.closers, sqlDB.Close)
		store, err := storage.NewSQL(db, session.Namespace)
		if err != nil {
			_ = b.Close()
			return nil, err
		}
		b.Store = store

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}

	return b, nil
}

func (b *Backend) openRedis(ctx context.Context, opts *redis.Options, session SessionConfig) error {
	client := redis.NewClient(opts)
	b.closers = append(b.closers, client.Close)
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}
	b.Redis = client
	b.Store = storage.NewRedis(client, session.Prefix, session.Namespace)
	return nil
}
