package rate

import "errors"

var (
	// ErrRateLimited is returned once a key has used up its attempts.
	ErrRateLimited = errors.New("rate limited")
	// ErrRedisUnavailable wraps counter read or write failures.
	ErrRedisUnavailable = errors.New("redis unavailable")
)
