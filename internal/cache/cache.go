// Package cache is the read-through side cache in front of the relational
// store. The store stays authoritative: every cache failure degrades to a
// miss and is never surfaced to callers.
package cache

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrMiss is returned by a Store when the key is absent.
var ErrMiss = errors.New("cache miss")

// Store is a byte-oriented key/value backend.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
}

// FillFunc produces the authoritative bytes for a key on a miss.
type FillFunc func(ctx context.Context) ([]byte, error)

// Cache is what domain services depend on.
type Cache interface {
	// Load returns the cached bytes for key, or calls fill and caches its
	// result. Only errors from fill are returned.
	Load(ctx context.Context, key string, fill FillFunc) ([]byte, error)
	// Invalidate removes keys. It never fails the caller.
	Invalidate(ctx context.Context, keys ...string)
}

// Nop is a Store that never holds anything.
type Nop struct{}

var _ Store = Nop{}

func (Nop) Get(context.Context, string) ([]byte, error) { return nil, ErrMiss }

func (Nop) Set(context.Context, string, []byte) error { return nil }

func (Nop) Delete(context.Context, ...string) error { return nil }
