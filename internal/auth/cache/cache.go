// Package cache holds short-lived values that expire on their own, such as
// pending email verification codes.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key is absent or has expired.
var ErrMiss = errors.New("cache: miss")

// Cache is a string key/value store with per-entry expiry. Set overwrites
// any existing value and restarts its TTL.
type Cache interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}
