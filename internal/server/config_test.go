package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	c, err := DefaultConfig()
	require.NoError(t, err)

	assert.Equal(t, ":8080", c.HTTP.Addr)
	assert.Equal(t, 15*time.Second, c.HTTP.ReadTimeout)
	assert.Equal(t, int64(65536), c.HTTP.MaxBodyBytes)
	assert.Equal(t, "info", c.Log.Level)
	assert.True(t, c.Log.Production)
	assert.Equal(t, BackendMemory, c.Storage.Backend)
	assert.Equal(t, "127.0.0.1:6379", c.Storage.Redis.Addr)
	assert.Equal(t, "ga", c.Session.Prefix)
	assert.Equal(t, "0", c.Session.Namespace)
	assert.Equal(t, 168*time.Hour, c.Session.TokenTTL)
	assert.Equal(t, uint32(65536), c.Password.Memory)
	assert.Equal(t, uint8(2), c.Password.Parallelism)
	assert.Equal(t, "Admin Console", c.Guard.TitleSuffix)
	assert.True(t, c.Audit.Enabled)
	assert.Equal(t, "/metrics", c.Metrics.Path)
	assert.True(t, c.Throttle.Enabled)
	assert.Equal(t, 5, c.Throttle.MaxAttempts)
	assert.Equal(t, 15*time.Minute, c.Throttle.Window)
	assert.NoError(t, c.Validate())
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "goadmin.yaml")
	raw := `
http:
  addr: "127.0.0.1:9090"
  read-timeout: 3s
storage:
  backend: sqlite
  sqlite-path: ` + filepath.Join(dir, "kv.db") + `
session:
  namespace: tenant-a
  verify-token: true
  secret: "0123456789abcdef0123456789abcdef"
metrics:
  enabled: false
  latency: false
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	c, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, path, c.File)
	assert.Equal(t, "127.0.0.1:9090", c.HTTP.Addr)
	assert.Equal(t, 3*time.Second, c.HTTP.ReadTimeout)
	assert.Equal(t, 15*time.Second, c.HTTP.WriteTimeout)
	assert.Equal(t, BackendSQLite, c.Storage.Backend)
	assert.Equal(t, "tenant-a", c.Session.Namespace)
	assert.True(t, c.Session.VerifyToken)
	assert.False(t, c.Metrics.Enabled)

	engineCfg, err := c.EngineConfig()
	require.NoError(t, err)
	assert.Equal(t, "tenant-a", engineCfg.Session.Namespace)
	assert.True(t, engineCfg.Session.VerifyToken)
	assert.Equal(t, []byte("0123456789abcdef0123456789abcdef"), engineCfg.JWT.PrivateKey)
	assert.False(t, engineCfg.Metrics.Enabled)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  backend: etcd\n"), 0o600))
	_, err = LoadConfig(path)
	assert.ErrorContains(t, err, "unknown storage backend")

	require.NoError(t, os.WriteFile(path, []byte("http: [oops"), 0o600))
	_, err = LoadConfig(path)
	assert.ErrorContains(t, err, "parse config file")
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(*Config){
		"empty addr": func(c *Config) {
			c.HTTP.Addr = ""
		},
		"zero body limit": func(c *Config) {
			c.HTTP.MaxBodyBytes = 0
		},
		"redis without addr": func(c *Config) {
			c.Storage.Backend = BackendRedis
			c.Storage.Redis.Addr = ""
		},
		"sqlite without path": func(c *Config) {
			c.Storage.Backend = BackendSQLite
			c.Storage.SQLitePath = ""
		},
		"relative metrics path": func(c *Config) {
			c.Metrics.Path = "metrics"
		},
		"latency without metrics": func(c *Config) {
			c.Metrics.Enabled = false
			c.Metrics.Latency = true
		},
		"throttle without window": func(c *Config) {
			c.Throttle.Window = 0
		},
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c, err := DefaultConfig()
			require.NoError(t, err)
			mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestEngineConfigRejectsShortSecret(t *testing.T) {
	c, err := DefaultConfig()
	require.NoError(t, err)
	c.Session.Secret = "short"

	_, err = c.EngineConfig()
	assert.Error(t, err)
}

func TestEngineConfigReadsKeyFiles(t *testing.T) {
	c, err := DefaultConfig()
	require.NoError(t, err)
	c.Session.SigningMethod = "ed25519"
	c.Session.PrivateKeyFile = filepath.Join(t.TempDir(), "missing.pem")

	_, err = c.EngineConfig()
	assert.ErrorContains(t, err, "read private key")
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(LogConfig{Level: "debug", Production: false})
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = NewLogger(LogConfig{Level: "loud"})
	assert.Error(t, err)
}
