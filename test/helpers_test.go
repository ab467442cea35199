//go:build integration
// +build integration

package test

import (
	"context"
	"path/filepath"
	"testing"

	goAdmin "github.com/MrEthical07/goAdmin"
	"github.com/MrEthical07/goAdmin/storage"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// backend builds a fresh storage.Storage for one test.
type backend struct {
	name string
	open func(t *testing.T) storage.Storage
}

func backends() []backend {
	return []backend{
		{name: "memory", open: func(*testing.T) storage.Storage { return storage.NewMemory() }},
		{name: "redis", open: openRedisStore},
		{name: "sqlite", open: openSQLiteStore},
	}
}

func openRedisStore(t *testing.T) storage.Storage {
	t.Helper()

	_, client := newTestRedis(t)
	return storage.NewRedis(client, "ga", "it")
}

func openSQLiteStore(t *testing.T) storage.Storage {
	t.Helper()

	db, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "kv.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	store, err := storage.NewSQL(db, "it")
	if err != nil {
		t.Fatalf("new sql store: %v", err)
	}
	return store
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return mr, client
}

func integrationConfig() goAdmin.Config {
	cfg := goAdmin.DefaultConfig()
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.JWT.PrivateKey = []byte("integration-secret-integration-secret")
	cfg.Login.VerifyCredentials = true
	cfg.Session.VerifyToken = true
	return cfg
}

func newEngine(t *testing.T, store storage.Storage) *goAdmin.Engine {
	t.Helper()

	engine, err := goAdmin.New().WithConfig(integrationConfig()).WithStorage(store).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

func mustRegister(t *testing.T, engine *goAdmin.Engine, username, password string) {
	t.Helper()
	if err := engine.Register(context.Background(), goAdmin.RegisterForm{Username: username, Password: password}); err != nil {
		t.Fatalf("Register(%s) failed: %v", username, err)
	}
}
