// Copyright (c) 2026 The objrt Authors

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package leafstore

import (
	"github.com/vimcore/objrt/cache"
)

// cacheEntry is a consistent snapshot of "the last leaf node touched,
// and the slot range it covers". CFStorage.c achieves the same thing
// by packing location/length/node into three half-word-tagged fields
// and a shared generation counter, so a reader can detect a torn read
// against a concurrent writer without taking a lock. Go's
// atomic.Pointer swap gives the same guarantee — the whole snapshot is
// replaced in one atomic store, so a concurrent reader never observes
// a location from one write and a node from another — without any
// bit-packing. cacheGen is kept alongside purely so Store exposes the
// same "generation counter" the source does, for diagnostics; it plays
// no role in the read's correctness.
type cacheEntry[T any] struct {
	node     *node[T]
	location int
	length   int
}

// setCache records that node covers [location, location+length) in
// slot space, for getSlot to consult before walking the tree.
func (s *Store[T]) setCache(n *node[T], location, length int) {
	s.cacheGen.Add(1)
	s.cache.Store(&cacheEntry[T]{node: n, location: location, length: length})
}

// clearCache invalidates the cache, used whenever the tree's shape
// changes in a way that could leave the cached node dangling (root
// split/collapse), matching CFStorage.c's explicit
// __CFStorageSetCache(storage, NULL, 0, 0) calls in those spots.
func (s *Store[T]) clearCache() {
	s.cacheGen.Add(1)
	s.cache.Store(&cacheEntry[T]{})
	logger.Debug("leafstore cache invalidated", "generation", s.cacheGen.Load())
}

// slotFromCache returns the cached node and in-node slot for idx, and
// whether the cache covered it. Misses and hits are counted through
// cache.Stats so callers can watch the hit rate the way the teacher's
// cache package is built to report it.
func (s *Store[T]) slotFromCache(idx int, consecutive *byteRange) (*node[T], int, bool) {
	entry := s.cache.Load()
	if entry == nil || entry.node == nil {
		s.miss()
		return nil, 0, false
	}
	if idx < entry.location || idx >= entry.location+entry.length {
		s.miss()
		return nil, 0, false
	}
	if entry.node.values == nil {
		// Leaf not yet materialized; fall through to the uncached path,
		// which will allocate it.
		s.miss()
		return nil, 0, false
	}
	s.hit()
	if consecutive != nil {
		consecutive.location = entry.location * s.valueSize
		consecutive.length = entry.length * s.valueSize
	}
	return entry.node, idx - entry.location, true
}

func (s *Store[T]) hit() {
	s.stats.Hit()
	cacheLookups().AddWithLabel(1, map[string]string{"result": "hit"})
}

func (s *Store[T]) miss() {
	s.stats.Miss()
	cacheLookups().AddWithLabel(1, map[string]string{"result": "miss"})
}

// getSlot is the cache-consulting entry point used by every read and
// write path, the Go analog of __CFStorageGetValueAtIndex. A cache hit
// takes no lock. A miss holds allocLock across the whole tree walk,
// not only around the lazy leaf allocation that walk may perform, so
// concurrent readers that miss the cache are serialized.
func (s *Store[T]) getSlot(idx int, consecutive *byteRange) (*node[T], int) {
	if n, slot, ok := s.slotFromCache(idx, consecutive); ok {
		return n, slot
	}
	s.allocLock.Lock()
	defer s.allocLock.Unlock()
	var rangeInBytes byteRange
	n, slot := s.findByte(s.root, idx*s.valueSize, &rangeInBytes)
	s.setCache(n, rangeInBytes.location/s.valueSize, rangeInBytes.length/s.valueSize)
	if consecutive != nil {
		*consecutive = rangeInBytes
	}
	return n, slot
}

// generation returns the number of cache writes observed so far,
// exposed for tests and diagnostics wanting to confirm a mutation
// invalidated or refreshed the cache.
func (s *Store[T]) generation() uint64 {
	return s.cacheGen.Load()
}

// hitStats exposes the underlying cache.Stats to Describe, which
// appends the lifetime hit/miss tally to its tree dump.
func (s *Store[T]) hitStats() *cache.Stats {
	return &s.stats
}
