// Copyright (c) 2026 The objrt Authors

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package leafstore implements an indexed store of arbitrary-typed
// values backed by a 2-3 tree of leaves, each leaf a contiguous run of
// values. It is the Go analog of CFStorage: random access, insertion,
// and deletion are all O(log n) worst case, and a single-slot,
// generation-counted cache makes repeated access near a recently
// touched location O(1).
//
// Store is thread-safe for any number of concurrent readers, but not
// for concurrent reading and writing, nor for concurrent writers —
// mutation must be externally serialized, the same contract CFStorage
// documents.
package leafstore

import (
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"
	"github.com/vimcore/objrt/cache"
	"github.com/vimcore/objrt/metrics"
	"github.com/vimcore/objrt/objrt"
)

var logger = log.New("module", "leafstore")

var (
	splitCount     = metrics.LazyLoadCounter("leaf_splits")
	mergeCount     = metrics.LazyLoadCounter("leaf_merges")
	nodeGauge      = metrics.LazyLoadGauge("leafstore_nodes")
	rebalanceFanIn = metrics.LazyLoadHistogram("leafstore_rebalance_fanin", nil)
	cacheLookups   = metrics.LazyLoadCounterVec("leafstore_cache_lookups", []string{"result"})
)

const pageSize = 4096

// maxLeafCapacityBytes is the largest a leaf's backing buffer is allowed to
// grow, in bytes. Above 15K malloc implementations tend to fall back
// to a slower path; 4096*3 was the figure the source settled on after
// benchmarking, and is kept unchanged since nothing about moving to Go
// changes that allocator-size tradeoff.
const maxLeafCapacityBytes = pageSize * 3

const pageLimit = pageSize / 2

func roundToPage(n int) int {
	return (n + pageSize - 1) &^ (pageSize - 1)
}

// Store is a 2-3 tree of leaves holding values of type T. The zero
// value is not usable; construct one with Create.
type Store[T any] struct {
	valueSize       int
	maxLeafCapacity int
	root            *node[T]

	cache    atomic.Pointer[cacheEntry[T]]
	cacheGen atomic.Uint64
	stats    cache.Stats

	allocLock sync.Mutex
	allocator objrt.Allocator[T]
	oom       objrt.OOMFunc
}

// Create returns an empty Store of values of type T. maxLeafCapacity,
// if positive, overrides the default leaf size budget (mainly useful
// for tests wanting to exercise splitting without huge element
// counts); zero or negative selects the default.
func Create[T any](maxLeafCapacity int) *Store[T] {
	return CreateWithAllocator[T](maxLeafCapacity, nil, nil)
}

// CreateWithAllocator is Create with a caller-supplied Allocator/OOMFunc
// pair wired into every leaf-buffer growth the tree performs; either may
// be nil, in which case that leg falls back to the Go runtime allocator
// and to halting by panic, respectively (matching Create's behavior).
func CreateWithAllocator[T any](maxLeafCapacity int, allocator objrt.Allocator[T], oom objrt.OOMFunc) *Store[T] {
	valueSize := sizeOfValue[T]()
	if valueSize == 0 {
		panic(ErrValueSizeMismatch)
	}
	if maxLeafCapacity <= 0 {
		maxLeafCapacity = maxLeafCapacityBytes
	}
	if maxLeafCapacity%valueSize != 0 {
		maxLeafCapacity = (maxLeafCapacity / valueSize) * valueSize
	}
	s := &Store[T]{
		valueSize:       valueSize,
		maxLeafCapacity: maxLeafCapacity,
		root:            newLeafNode[T](0),
		allocator:       allocator,
		oom:             oom,
	}
	logger.Debug("leafstore created", "max_leaf_capacity", s.maxLeafCapacity)
	return s
}

// Count returns the number of values currently held.
func (s *Store[T]) Count() int {
	return s.slotsOf(s.root.numBytes)
}

// Capacity returns the total number of values the currently allocated
// leaf buffers could hold without further reallocation.
func (s *Store[T]) Capacity() int {
	return s.slotsOf(nodeCapacity(s.root))
}

// ValueSize returns the byte-budget unit leaf-capacity thresholds are
// expressed in; it is not a meaningful size for T in general (e.g. a
// Go interface's in-memory representation), only a stable per-T
// constant used for leaf-splitting arithmetic.
func (s *Store[T]) ValueSize() int {
	return s.valueSize
}

// Get returns the value at idx.
func (s *Store[T]) Get(idx int) T {
	n, slot := s.getSlot(idx, nil)
	return n.values[slot]
}

// GetRange copies count values starting at idx into a new slice.
func (s *Store[T]) GetRange(idx, count int) []T {
	out := make([]T, count)
	for count > 0 {
		var consecutive byteRange
		n, slot := s.getSlot(idx, &consecutive)
		leafLen := s.slotsOf(consecutive.length)
		leafStart := s.slotsOf(consecutive.location)
		take := count
		if avail := leafStart + leafLen - idx; take > avail {
			take = avail
		}
		copy(out[:take], n.values[slot:slot+take])
		out = out[take:]
		idx += take
		count -= take
	}
	return out
}

// Apply calls fn with every value in [idx, idx+count) in order.
func (s *Store[T]) Apply(idx, count int, fn func(v T)) {
	for count > 0 {
		var consecutive byteRange
		n, slot := s.getSlot(idx, &consecutive)
		leafLen := s.slotsOf(consecutive.length)
		leafStart := s.slotsOf(consecutive.location)
		take := count
		if avail := leafStart + leafLen - idx; take > avail {
			take = avail
		}
		for i := 0; i < take; i++ {
			fn(n.values[slot+i])
		}
		idx += take
		count -= take
	}
}

// ReplaceRange overwrites count existing values starting at idx with
// values. len(values) must equal count.
func (s *Store[T]) ReplaceRange(idx, count int, values []T) {
	for count > 0 {
		var consecutive byteRange
		n, slot := s.getSlot(idx, &consecutive)
		leafLen := s.slotsOf(consecutive.length)
		leafStart := s.slotsOf(consecutive.location)
		take := count
		if avail := leafStart + leafLen - idx; take > avail {
			take = avail
		}
		copy(n.values[slot:slot+take], values[:take])
		values = values[take:]
		idx += take
		count -= take
	}
}

// InsertRange makes room for len(values) values at idx and stores
// them there, deepening the tree if necessary. Mirrors
// CFStorageInsertValues, splitting the insertion across leaf-sized
// chunks and adding a new root when the existing root overflows.
func (s *Store[T]) InsertRange(idx int, values []T) {
	numBytesToInsert := len(values) * s.valueSize
	byteNum := idx * s.valueSize
	for numBytesToInsert > 0 {
		insertThisTime := numBytesToInsert
		if insertThisTime > s.maxLeafCapacity {
			insertThisTime = (s.maxLeafCapacity / s.valueSize) * s.valueSize
		}
		newNode := s.insert(s.root, byteNum, insertThisTime, byteNum)
		if newNode != nil {
			oldRoot := s.root
			s.root = newInteriorNode[T]()
			s.root.children[0] = oldRoot
			s.root.children[1] = newNode
			s.root.numBytes = oldRoot.numBytes + newNode.numBytes
			s.clearCache()
		}
		numBytesToInsert -= insertThisTime
		byteNum += insertThisTime
	}
	s.ReplaceRange(idx, len(values), values)
}

// DeleteRange removes count values starting at idx, collapsing levels
// of the tree that are no longer needed. Mirrors CFStorageDeleteValues.
func (s *Store[T]) DeleteRange(idx, count int) {
	r := byteRange{idx * s.valueSize, count * s.valueSize}
	s.delete(s.root, r, true)
	for numChildren(s.root) == 1 {
		s.root = s.root.children[0]
	}
	if numChildren(s.root) == 0 && !s.root.isLeaf {
		s.root = newLeafNode[T](0)
	}
	s.clearCache()
}

// Equal reports whether s and other hold the same sequence of values,
// as compared by eq. Walks both stores leaf-range by leaf-range
// (CFStorage.c's __CFStorageEqual strategy) rather than index by
// index, so two stores with differently shaped trees but identical
// contents still compare in O(n), not O(n log n).
func (s *Store[T]) Equal(other *Store[T], eq func(a, b T) bool) bool {
	count := s.Count()
	if count != other.Count() {
		return false
	}
	if s.ValueSize() != other.ValueSize() {
		return false
	}
	loc := 0
	var range1, range2 byteRange
	var ptr1, ptr2 *node[T]
	var slot1, slot2 int
	for loc < count {
		if loc >= s.slotsOf(range1.location)+s.slotsOf(range1.length) {
			ptr1, slot1 = s.getSlot(loc, &range1)
		}
		if loc >= other.slotsOf(range2.location)+other.slotsOf(range2.length) {
			ptr2, slot2 = other.getSlot(loc, &range2)
		}
		end1 := s.slotsOf(range1.location) + s.slotsOf(range1.length)
		end2 := other.slotsOf(range2.location) + other.slotsOf(range2.length)
		cntThisTime := end1
		if end2 < cntThisTime {
			cntThisTime = end2
		}
		cntThisTime -= loc
		o1 := slot1 + (loc - s.slotsOf(range1.location))
		o2 := slot2 + (loc - other.slotsOf(range2.location))
		for i := 0; i < cntThisTime; i++ {
			if !eq(ptr1.values[o1+i], ptr2.values[o2+i]) {
				return false
			}
		}
		loc += cntThisTime
	}
	return true
}

// Describe renders a human-readable tree dump, grounded on
// CFStorage.c's __CFStorageDescribeNode, followed by the cache's
// lifetime hit/miss tally from hitStats.
func (s *Store[T]) Describe() string {
	var b strings.Builder
	describeNode(s.root, &b, 0)
	_, hit, miss := s.hitStats().Stats()
	b.WriteString("cache: ")
	b.WriteString(strconv.FormatInt(hit, 10))
	b.WriteString(" hits, ")
	b.WriteString(strconv.FormatInt(miss, 10))
	b.WriteString(" misses\n")
	return b.String()
}

func describeNode[T any](n *node[T], b *strings.Builder, level int) {
	for i := 0; i < level; i++ {
		b.WriteString("  ")
	}
	if n.isLeaf {
		b.WriteString("Leaf ")
		b.WriteString(strconv.Itoa(n.numBytes))
		b.WriteByte('/')
		b.WriteString(strconv.Itoa(n.capacityBytes))
		b.WriteByte('\n')
		return
	}
	b.WriteString("Node ")
	b.WriteString(strconv.Itoa(n.numBytes))
	b.WriteByte('\n')
	for _, child := range n.children {
		if child != nil {
			describeNode(child, b, level+1)
		}
	}
}

// ErrValueSizeMismatch is the panic value raised by Create/
// CreateWithAllocator when T is zero-sized (e.g. struct{}): the leaf
// capacity policy's byte-budget arithmetic (maxLeafCapacityBytes,
// pageLimit, the 64-byte rounding in allocLeafMemory) is meaningless
// against a value size of zero, so constructing a Store over such a T
// is a programmer error caught at construction rather than a runtime
// condition to recover from.
var ErrValueSizeMismatch = errors.New("leafstore: value size must be positive")
