package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

var _ Store = (*LRUStore)(nil)

// LRUStore is an in-process Store bounded by entry count and TTL.
type LRUStore struct {
	lru *expirable.LRU[string, []byte]
}

// NewLRUStore returns an LRUStore holding at most size entries.
func NewLRUStore(size int, ttl time.Duration) *LRUStore {
	return &LRUStore{lru: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

// Get implements Store.
func (s *LRUStore) Get(_ context.Context, key string) ([]byte, error) {
	b, ok := s.lru.Get(key)
	if !ok {
		return nil, ErrMiss
	}
	return b, nil
}

// Set implements Store. The value is copied.
func (s *LRUStore) Set(_ context.Context, key string, value []byte) error {
	s.lru.Add(key, append([]byte(nil), value...))
	return nil
}

// Delete implements Store.
func (s *LRUStore) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		s.lru.Remove(k)
	}
	return nil
}

// Len reports the number of live entries.
func (s *LRUStore) Len() int { return s.lru.Len() }
