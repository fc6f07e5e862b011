// Package cache holds small, reusable caching primitives shared by the
// seq and leafstore packages. None of these are consulted by a mutating
// or invariant-bearing read path; they exist purely to memoize
// diagnostics (Container.Describe) and to count hits/misses on
// leafstore's single-slot access cache.
package cache

import (
	lru "github.com/hashicorp/golang-lru"
)

// LRU is a bounded key-to-value cache, used by seq.Container to memoize
// the result of a caller's Describe callback.
type LRU struct {
	*lru.Cache
	maxSize int
}

// NewLRU creates a new LRU cache holding at most maxSize entries.
func NewLRU(maxSize int) *LRU {
	cache, _ := lru.New(maxSize)
	return &LRU{cache, maxSize}
}

// MaxSize returns the capacity the cache was constructed with.
func (l *LRU) MaxSize() int {
	return l.maxSize
}

// Loader defines loader to load value.
type Loader func(key interface{}) (interface{}, error)

// GetOrLoad first try to get from cache, do load if missed.
func (l *LRU) GetOrLoad(key interface{}, loader Loader) (interface{}, error) {
	if v, ok := l.Get(key); ok {
		return v, nil
	}
	v, err := loader(key)
	if err != nil {
		return nil, err
	}

	l.Add(key, v)
	return v, nil
}
