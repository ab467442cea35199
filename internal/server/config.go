package server

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	goAdmin "github.com/MrEthical07/goAdmin"
	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

// Storage backends understood by OpenBackend.
const (
	BackendMemory    = "memory"
	BackendRedis     = "redis"
	BackendSQLite    = "sqlite"
	BackendMiniredis = "miniredis"
)

// Config is the server configuration file.
type Config struct {
	File     string         `yaml:"-"`
	HTTP     HTTPConfig     `yaml:"http"`
	Log      LogConfig      `yaml:"log"`
	Storage  StorageConfig  `yaml:"storage"`
	Session  SessionConfig  `yaml:"session"`
	Password PasswordConfig `yaml:"password"`
	Guard    GuardConfig    `yaml:"guard"`
	Throttle ThrottleConfig `yaml:"throttle"`
	Audit    AuditConfig    `yaml:"audit"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// HTTPConfig controls the listener.
type HTTPConfig struct {
	Addr            string        `yaml:"addr" default:":8080"`
	ReadTimeout     time.Duration `yaml:"read-timeout" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write-timeout" default:"15s"`
	ShutdownTimeout time.Duration `yaml:"shutdown-timeout" default:"10s"`
	// MaxBodyBytes caps JSON request bodies.
	MaxBodyBytes int64 `yaml:"max-body-bytes" default:"65536"`
}

// LogConfig selects the zap logger.
type LogConfig struct {
	// Level is parsed by zapcore.ParseLevel.
	Level string `yaml:"level" default:"info"`
	// Production switches to JSON output.
	Production bool `yaml:"production" default:"true"`
}

// StorageConfig selects and configures the durable key-value backend.
type StorageConfig struct {
	Backend string      `yaml:"backend" default:"memory"`
	Redis   RedisConfig `yaml:"redis"`
	// SQLitePath is the database file of the sqlite backend.
	SQLitePath string `yaml:"sqlite-path" default:"goadmin.db"`
}

// RedisConfig configures the redis backend.
type RedisConfig struct {
	Addr     string `yaml:"addr" default:"127.0.0.1:6379"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// SessionConfig maps onto the engine's session, login and token settings.
type SessionConfig struct {
	Prefix            string        `yaml:"prefix" default:"ga"`
	Namespace         string        `yaml:"namespace" default:"0"`
	VerifyToken       bool          `yaml:"verify-token"`
	VerifyCredentials bool          `yaml:"verify-credentials"`
	TokenTTL          time.Duration `yaml:"token-ttl" default:"168h"`
	Issuer            string        `yaml:"issuer" default:"goadmin"`
	SigningMethod     string        `yaml:"signing-method" default:"hs256"`
	// Secret is the hs256 key. An empty secret makes the engine generate one
	// per process, so tokens do not survive a restart.
	Secret         string `yaml:"secret"`
	PrivateKeyFile string `yaml:"private-key-file"`
	PublicKeyFile  string `yaml:"public-key-file"`
	DefaultAvatar  string `yaml:"default-avatar"`
}

// PasswordConfig holds the argon2id cost parameters and length limits.
type PasswordConfig struct {
	Memory      uint32 `yaml:"memory" default:"65536"`
	Time        uint32 `yaml:"time" default:"3"`
	Parallelism uint8  `yaml:"parallelism" default:"2"`
	MinLength   int    `yaml:"min-length"`
	MaxLength   int    `yaml:"max-length" default:"1024"`
}

// GuardConfig configures page navigation.
type GuardConfig struct {
	TitleSuffix string `yaml:"title-suffix" default:"Admin Console"`
}

// ThrottleConfig limits failed logins. It needs a redis or miniredis
// backend and is skipped otherwise.
type ThrottleConfig struct {
	Enabled     bool          `yaml:"enabled" default:"true"`
	MaxAttempts int           `yaml:"max-attempts" default:"5"`
	Window      time.Duration `yaml:"window" default:"15m"`
	PerIP       bool          `yaml:"per-ip" default:"true"`
}

// AuditConfig controls audit logging through zap.
type AuditConfig struct {
	Enabled    bool `yaml:"enabled" default:"true"`
	BufferSize int  `yaml:"buffer-size" default:"1024"`
}

// MetricsConfig controls the metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" default:"true"`
	Latency bool   `yaml:"latency" default:"true"`
	Path    string `yaml:"path" default:"/metrics"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() (*Config, error) {
	c := new(Config)
	if err := defaults.Set(c); err != nil {
		return nil, fmt.Errorf("set default config: %w", err)
	}
	return c, nil
}

// LoadConfig reads a YAML file over the defaults and validates the result.
func LoadConfig(path string) (*Config, error) {
	c, err := DefaultConfig()
	if err != nil {
		return nil, err
	}

	realpath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	c.File = filepath.Clean(realpath)

	raw, err := os.ReadFile(c.File)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the server-level settings. Engine settings are checked
// again by the engine builder.
func (c *Config) Validate() error {
	if c.HTTP.Addr == "" {
		return errors.New("http addr is required")
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		return errors.New("http max-body-bytes must be > 0")
	}
	switch c.Storage.Backend {
	case BackendMemory, BackendMiniredis:
	case BackendRedis:
		if c.Storage.Redis.Addr == "" {
			return errors.New("storage redis addr is required")
		}
	case BackendSQLite:
		if c.Storage.SQLitePath == "" {
			return errors.New("storage sqlite-path is required")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Throttle.Enabled && (c.Throttle.MaxAttempts <= 0 || c.Throttle.Window <= 0) {
		return errors.New("throttle max-attempts and window must be > 0")
	}
	if c.Metrics.Enabled && (c.Metrics.Path == "" || c.Metrics.Path[0] != '/') {
		return errors.New("metrics path must start with /")
	}
	if c.Metrics.Latency && !c.Metrics.Enabled {
		return errors.New("metrics latency requires metrics enabled")
	}
	return nil
}

// EngineConfig translates the file settings into an engine configuration,
// reading key files when configured.
func (c *Config) EngineConfig() (goAdmin.Config, error) {
	cfg := goAdmin.DefaultConfig()

	cfg.Session.RedisPrefix = c.Session.Prefix
	cfg.Session.Namespace = c.Session.Namespace
	cfg.Session.VerifyToken = c.Session.VerifyToken
	if c.Session.DefaultAvatar != "" {
		cfg.Session.DefaultAvatar = c.Session.DefaultAvatar
	}
	cfg.Login.VerifyCredentials = c.Session.VerifyCredentials

	cfg.JWT.TTL = c.Session.TokenTTL
	cfg.JWT.Issuer = c.Session.Issuer
	cfg.JWT.SigningMethod = c.Session.SigningMethod
	if c.Session.Secret != "" {
		cfg.JWT.PrivateKey = []byte(c.Session.Secret)
	}
	if c.Session.PrivateKeyFile != "" {
		key, err := os.ReadFile(c.Session.PrivateKeyFile)
		if err != nil {
			return goAdmin.Config{}, fmt.Errorf("read private key: %w", err)
		}
		cfg.JWT.PrivateKey = key
	}
	if c.Session.PublicKeyFile != "" {
		key, err := os.ReadFile(c.Session.PublicKeyFile)
		if err != nil {
			return goAdmin.Config{}, fmt.Errorf("read public key: %w", err)
		}
		cfg.JWT.PublicKey = key
	}

	cfg.Password.Memory = c.Password.Memory
	cfg.Password.Time = c.Password.Time
	cfg.Password.Parallelism = c.Password.Parallelism
	cfg.Password.MinPasswordBytes = c.Password.MinLength
	cfg.Password.MaxPasswordBytes = c.Password.MaxLength

	cfg.Audit.Enabled = c.Audit.Enabled
	if c.Audit.BufferSize > 0 {
		cfg.Audit.BufferSize = c.Audit.BufferSize
	}
	cfg.Metrics.Enabled = c.Metrics.Enabled
	cfg.Metrics.EnableLatencyHistograms = c.Metrics.Latency

	return cfg, cfg.Validate()
}
