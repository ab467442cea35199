package goAdmin

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/MrEthical07/goAdmin/session"
	"github.com/MrEthical07/goAdmin/storage"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.JWT.PrivateKey = []byte("test-secret-test-secret-test-secret!")
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true
	return cfg
}

func buildEngine(t *testing.T, store storage.Storage, mutate func(*Config)) *Engine {
	t.Helper()

	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	engine, err := New().WithConfig(cfg).WithStorage(store).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

func newMemoryEngine(t *testing.T, mutate func(*Config)) (*Engine, *storage.Memory) {
	t.Helper()
	store := storage.NewMemory()
	return buildEngine(t, store, mutate), store
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return mr, client
}

// newRedisEngine returns an engine built WithRedis plus a store view over
// the same keys.
func newRedisEngine(t *testing.T, mutate func(*Config)) (*Engine, *storage.Redis, *miniredis.Miniredis) {
	t.Helper()

	mr, client := newTestRedis(t)
	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	engine, err := New().WithConfig(cfg).WithRedis(client).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine, storage.NewRedis(client, cfg.Session.RedisPrefix, cfg.Session.Namespace), mr
}

func mustGet(t *testing.T, s storage.Storage, key string) string {
	t.Helper()
	v, err := s.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("get %s: %v", key, err)
	}
	return v
}

func assertAbsent(t *testing.T, s storage.Storage, keys ...string) {
	t.Helper()
	for _, key := range keys {
		if _, err := s.Get(context.Background(), key); !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("expected %s to be absent, got err=%v", key, err)
		}
	}
}

func mustUsers(t *testing.T, s storage.Storage) []session.UserRecord {
	t.Helper()
	raw, err := s.Get(context.Background(), session.KeyUsers)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		t.Fatalf("get users: %v", err)
	}
	users, err := session.DecodeUsers(raw)
	if err != nil {
		t.Fatalf("decode users: %v", err)
	}
	return users
}

// flakyStore is a Storage without atomic extensions whose Set fails for
// selected keys.
type flakyStore struct {
	inner *storage.Memory

	mu      sync.Mutex
	failSet map[string]error
}

func newFlakyStore() *flakyStore {
	return &flakyStore{inner: storage.NewMemory(), failSet: map[string]error{}}
}

func (f *flakyStore) failOn(key string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failSet[key] = err
}

func (f *flakyStore) Get(ctx context.Context, key string) (string, error) {
	return f.inner.Get(ctx, key)
}

func (f *flakyStore) Set(ctx context.Context, key, value string) error {
	f.mu.Lock()
	err := f.failSet[key]
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.inner.Set(ctx, key, value)
}

func (f *flakyStore) Remove(ctx context.Context, keys ...string) error {
	return f.inner.Remove(ctx, keys...)
}
