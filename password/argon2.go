package password

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
)

const (
	minMemoryKB    uint32 = 8 * 1024
	minTimeCost    uint32 = 1
	minParallelism uint8  = 1
	minSaltLength  uint32 = 16
	minKeyLength   uint32 = 16
)

// DefaultMaxPasswordBytes applies when Config.MaxPasswordBytes is zero.
const DefaultMaxPasswordBytes = 1024

var (
	// ErrPasswordTooShort is returned by Hash for passwords under the minimum length.
	ErrPasswordTooShort = errors.New("password too short")
	// ErrPasswordTooLong is returned by Hash and Verify for passwords over the maximum length.
	ErrPasswordTooLong = errors.New("password too long")
)

// Config holds Argon2id cost parameters and password length bounds.
// Lengths are raw byte counts; no Unicode normalization is applied. A zero
// MinPasswordBytes accepts any password, the empty one included.
type Config struct {
	Memory      uint32 // KiB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32

	MinPasswordBytes int
	MaxPasswordBytes int
}

func (c Config) params() Params {
	return Params{Memory: c.Memory, Time: c.Time, Parallelism: c.Parallelism, KeyLength: c.KeyLength}
}

func (c Config) validate() error {
	switch {
	case c.Memory < minMemoryKB:
		return fmt.Errorf("password memory must be >= %d KiB", minMemoryKB)
	case c.Time < minTimeCost:
		return errors.New("password time must be >= 1")
	case c.Parallelism < minParallelism:
		return errors.New("password parallelism must be >= 1")
	case c.SaltLength < minSaltLength:
		return fmt.Errorf("password salt length must be >= %d", minSaltLength)
	case c.KeyLength < minKeyLength:
		return fmt.Errorf("password key length must be >= %d", minKeyLength)
	case c.MinPasswordBytes < 0:
		return errors.New("password minimum length must be >= 0")
	case c.MaxPasswordBytes < c.MinPasswordBytes:
		return errors.New("password maximum length must be >= minimum length")
	}
	return nil
}

// Argon2 hashes and verifies user-table passwords. It is safe for
// concurrent use.
type Argon2 struct {
	config Config
}

// NewArgon2 validates cfg and fills in the default maximum length.
func NewArgon2(cfg Config) (*Argon2, error) {
	if cfg.MaxPasswordBytes == 0 {
		cfg.MaxPasswordBytes = DefaultMaxPasswordBytes
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Argon2{config: cfg}, nil
}

// Params returns the parameters new hashes are produced with.
func (a *Argon2) Params() Params {
	return a.config.params()
}

// Hash returns the PHC encoding of password with a fresh random salt.
func (a *Argon2) Hash(password string) (string, error) {
	switch {
	case len(password) < a.config.MinPasswordBytes:
		return "", ErrPasswordTooShort
	case len(password) > a.config.MaxPasswordBytes:
		return "", ErrPasswordTooLong
	}

	salt := make([]byte, a.config.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("read salt: %w", err)
	}
	p := a.config.params()
	key := argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Parallelism, p.KeyLength)
	return encodePHC(p, salt, key), nil
}

// Verify reports whether password matches encoded. A malformed hash returns
// an error wrapping ErrMalformedHash; a mismatch is (false, nil).
func (a *Argon2) Verify(password, encoded string) (bool, error) {
	if len(password) > a.config.MaxPasswordBytes {
		return false, ErrPasswordTooLong
	}
	d, err := decodePHC(encoded)
	if err != nil {
		return false, err
	}

	p := d.params
	computed := argon2.IDKey([]byte(password), d.salt, p.Time, p.Memory, p.Parallelism, p.KeyLength)
	return subtle.ConstantTimeCompare(computed, d.key) == 1, nil
}

// NeedsUpgrade reports whether encoded was produced with weaker parameters
// than the hasher's current config.
func (a *Argon2) NeedsUpgrade(encoded string) (bool, error) {
	stored, err := Inspect(encoded)
	if err != nil {
		return false, err
	}
	return stored.Weaker(a.config.params()), nil
}
