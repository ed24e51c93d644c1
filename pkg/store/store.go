// Package store provides the small key/value contract the result cache is
// built on, plus the backends basket ships with.
//
// Keys are plain strings, values are opaque strings. Keys takes glob
// patterns such as `search:*`; `*`, `?` and `[...]` behave the same on
// every backend.
package store

import (
	"context"
	"errors"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store is closed")

// Store is a string key/value store.
type Store interface {
	// Get returns the value for key. ok is false when the key is missing.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set writes value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Keys returns every key matching the glob pattern, in ascending order.
	Keys(ctx context.Context, pattern string) ([]string, error)
	Close() error
}
