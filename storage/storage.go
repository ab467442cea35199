package storage

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Get when the key is absent.
	ErrNotFound = errors.New("storage: key not found")
	// ErrUnavailable wraps backend failures (network, driver, closed store).
	ErrUnavailable = errors.New("storage: backend unavailable")
	// ErrConflict is returned when an optimistic update keeps losing races.
	ErrConflict = errors.New("storage: update conflict")
)

// Storage is a durable string key-value store.
type Storage interface {
	// Get returns the value for key or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)
	// Set writes value under key.
	Set(ctx context.Context, key, value string) error
	// Remove deletes keys. Absent keys are not an error.
	Remove(ctx context.Context, keys ...string) error
}

// UpdateFunc computes the next value of a key from its current value.
// Returning an error aborts the update and is passed through unchanged.
type UpdateFunc func(current string, exists bool) (string, error)

// Updater performs an atomic read-modify-write of one key.
type Updater interface {
	Update(ctx context.Context, key string, fn UpdateFunc) error
}

// MultiSetter writes several keys in one step.
type MultiSetter interface {
	SetMulti(ctx context.Context, values map[string]string) error
}

// Update runs fn against key, atomically when s implements Updater.
func Update(ctx context.Context, s Storage, key string, fn UpdateFunc) error {
	if u, ok := s.(Updater); ok {
		return u.Update(ctx, key, fn)
	}

	current, err := s.Get(ctx, key)
	exists := true
	if errors.Is(err, ErrNotFound) {
		current, exists = "", false
	} else if err != nil {
		return err
	}

	next, err := fn(current, exists)
	if err != nil {
		return err
	}
	return s.Set(ctx, key, next)
}

func unavailable(err error) error {
	if err == nil {
		return nil
	}
	return errors.Join(ErrUnavailable, err)
}
