// Copyright (c) 2026 The objrt Authors

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package seq implements an ordered sequence container that
// transparently switches between three representations as its element
// count grows: a fixed inline array for immutable sequences, a
// ring-buffer deque for small mutable ones, and a leafstore.Store for
// large ones. The switch is invisible to callers; every operation below
// the threshold runs against the deque in O(1) amortized time, and
// above it against the leaf store in O(log n).
//
// Container is safe for any number of concurrent readers. It is not
// safe for concurrent mutation, nor for mixing reads and writes
// concurrently — the caller must serialize those, the same single-
// writer discipline leafstore documents.
package seq

import (
	"fmt"
	"reflect"

	"github.com/ethereum/go-ethereum/log"
	"github.com/vimcore/objrt/cache"
	"github.com/vimcore/objrt/leafstore"
	"github.com/vimcore/objrt/metrics"
	"github.com/vimcore/objrt/objrt"
)

var logger = log.New("module", "seq")

// maxDequeCapacity is the point at which a mutation is required to
// promote the container from Mutable-Deque to Mutable-Store; it is
// also the upper clamp for any deque's capacity.
const maxDequeCapacity = 262140

// halfMaxDequeCapacity is the point a deletion must cross, at or below,
// before a Mutable-Store container is demoted back to Mutable-Deque.
const halfMaxDequeCapacity = maxDequeCapacity / 2

type representation int

const (
	reprInline representation = iota
	reprDeque
	reprStore
)

var (
	mutationCount   = metrics.LazyLoadCounter("mutations")
	promoteCount    = metrics.LazyLoadCounter("representation_promotions")
	demoteCount     = metrics.LazyLoadCounter("representation_demotions")
	repositionCount = metrics.LazyLoadCounter("deque_repositions")
)

// Container is an ordered sequence of values of type T. The zero value
// is not usable; construct one with Create or CreateMutable.
//
// weak marks a container whose element slots do not keep their
// referents alive under a scanning collector (spec.md §3.1, §5
// "Collector interop"): a weak container never calls callbacks.Retain/
// Release, and backs its buffers with AllocHint.HintUnscanned rather
// than HintScanned when a caller-supplied Allocator is present.
type Container[T any] struct {
	count           int
	repr            representation
	callbacks       objrt.Callbacks[T]
	mutationCounter uint64
	immutable       bool
	weak            bool
	finalized       bool

	allocator objrt.Allocator[T]
	oom       objrt.OOMFunc

	inline []T
	deque  *deque[T]
	store  *leafstore.Store[T]

	describeCache *cache.LRU
}

// Create returns an Immutable-Inline container holding a copy of
// values, retaining each through callbacks.Retain if present.
func Create[T any](values []T, callbacks objrt.Callbacks[T]) *Container[T] {
	c := &Container[T]{
		callbacks: callbacks,
		immutable: true,
		count:     len(values),
	}
	c.inline = objrt.Grow[T](c.allocator, c.oom, nil, len(values), objrt.HintOpaque, c, "seq.inline")
	for i, v := range values {
		c.inline[i] = retain(callbacks, v, c.weak)
	}
	return c
}

// CreateCopy returns a new Immutable-Inline container with the same
// elements and callbacks as src.
func CreateCopy[T any](src *Container[T]) *Container[T] {
	return Create(src.GetRange(0, src.Count()), src.callbacks)
}

// CreateMutable returns an empty Mutable-Deque container. capacityHint
// is advisory only — it is never cached or enforced, matching
// create_mutable's documented contract.
func CreateMutable[T any](capacityHint int, callbacks objrt.Callbacks[T]) *Container[T] {
	return CreateMutableWithAllocator(capacityHint, callbacks, nil, nil)
}

// CreateMutableWithAllocator is CreateMutable with a caller-supplied
// Allocator/OOMFunc pair wired into every deque/store buffer growth the
// container performs thereafter, including across a representation
// promotion or demotion.
func CreateMutableWithAllocator[T any](capacityHint int, callbacks objrt.Callbacks[T], allocator objrt.Allocator[T], oom objrt.OOMFunc) *Container[T] {
	c := &Container[T]{
		callbacks: callbacks,
		repr:      reprDeque,
		allocator: allocator,
		oom:       oom,
	}
	c.deque = newDeque[T](4, c.allocator, c.oom, c.weak)
	return c
}

// CreateWeakMutable returns an empty Mutable-Deque container whose
// element slots do not keep their referents alive under a scanning
// collector: it never invokes callbacks.Retain/Release, since doing so
// would create the very strong reference weakness is meant to avoid,
// and it registers its buffers as AllocHint.HintUnscanned rather than
// HintScanned with a caller-supplied Allocator.
func CreateWeakMutable[T any](capacityHint int, callbacks objrt.Callbacks[T]) *Container[T] {
	c := &Container[T]{
		callbacks: callbacks,
		repr:      reprDeque,
		weak:      true,
	}
	c.deque = newDeque[T](4, nil, nil, true)
	return c
}

// CreateMutableCopy returns a new Mutable-Deque container holding a
// copy of src's elements.
func CreateMutableCopy[T any](capacityHint int, src *Container[T]) *Container[T] {
	c := CreateMutable(capacityHint, src.callbacks)
	c.AppendRange(src, fullRange(src.Count()))
	return c
}

// Finalize releases every element exactly once (unless c is weak, which
// never held a strong reference to begin with) and marks c finalized.
// Mutation remains callable afterward, but ReplaceRange and Exchange
// become no-ops: spec.md §5 requires skipping further mutation
// callbacks post-finalization so a release callback that reaches back
// into a peer container can't resurrect it.
func (c *Container[T]) Finalize() {
	if c.finalized {
		return
	}
	if !c.weak {
		for i := 0; i < c.count; i++ {
			release(c.callbacks, c.Get(i), c.weak)
		}
	}
	c.finalized = true
}

func retain[T any](cb objrt.Callbacks[T], v T, weak bool) T {
	if weak {
		return v
	}
	if cb.Retain != nil {
		return cb.Retain(v)
	}
	return v
}

func release[T any](cb objrt.Callbacks[T], v T, weak bool) {
	if weak {
		return
	}
	if cb.Release != nil {
		cb.Release(v)
	}
}

// Range is a half-open interval [Location, Location+Length) over
// element indices.
type Range struct {
	Location int
	Length   int
}

func fullRange(n int) Range { return Range{0, n} }

func (c *Container[T]) validateRange(r Range) {
	if r.Location < 0 || r.Length < 0 || r.Location+r.Length > c.count {
		panic("seq: range out of bounds")
	}
}

func (c *Container[T]) requireMutable() {
	if c.immutable {
		panic("seq: mutation of immutable container")
	}
}

// Count returns the number of elements currently held.
func (c *Container[T]) Count() int { return c.count }

// MutationCount returns the monotonically increasing counter bumped on
// every mutating operation, exposed so external iterators can detect
// concurrent modification.
func (c *Container[T]) MutationCount() uint64 { return c.mutationCounter }

// Get returns the element at idx.
func (c *Container[T]) Get(idx int) T {
	c.validateRange(Range{idx, 1})
	switch c.repr {
	case reprInline:
		return c.inline[idx]
	case reprDeque:
		return c.deque.get(idx)
	default:
		return c.store.Get(idx)
	}
}

// GetRange copies count elements starting at idx into a new slice.
func (c *Container[T]) GetRange(idx, count int) []T {
	c.validateRange(Range{idx, count})
	out := make([]T, count)
	switch c.repr {
	case reprInline:
		copy(out, c.inline[idx:idx+count])
	case reprDeque:
		c.deque.getRange(idx, count, out)
	default:
		copy(out, c.store.GetRange(idx, count))
	}
	return out
}

// Apply invokes fn with every element of r in ascending index order.
// fn must not mutate the container.
func (c *Container[T]) Apply(r Range, fn func(v T)) {
	c.validateRange(r)
	if r.Length == 0 {
		return
	}
	switch c.repr {
	case reprInline:
		for _, v := range c.inline[r.Location : r.Location+r.Length] {
			fn(v)
		}
	case reprDeque:
		for i := 0; i < r.Length; i++ {
			fn(c.deque.get(r.Location + i))
		}
	default:
		c.store.Apply(r.Location, r.Length, fn)
	}
}

// Contains reports whether value appears anywhere in r, using
// callbacks.Equal if present, else reflect.DeepEqual — the same
// element-wise rule Equal uses, applied to a single search value rather
// than another container. DeepEqual is not an identity check: for a
// pointer-typed T, two distinct pointers to deeply equal data match
// (spec.md's callback-identity tie-break has no counterpart
// for single-container search, since there is only one callback record
// in play).
func (c *Container[T]) Contains(value T, r Range) bool {
	return c.IndexOf(value, r, 1) != -1
}

// IndexOf returns the first (direction >= 0) or last (direction < 0)
// index in r equal to value, or -1 if none.
func (c *Container[T]) IndexOf(value T, r Range, direction int) int {
	c.validateRange(r)
	eq := c.equalFunc()
	if direction >= 0 {
		for i := 0; i < r.Length; i++ {
			if eq(value, c.Get(r.Location+i)) {
				return r.Location + i
			}
		}
		return -1
	}
	for i := r.Length - 1; i >= 0; i-- {
		if eq(value, c.Get(r.Location+i)) {
			return r.Location + i
		}
	}
	return -1
}

// CountOf returns the number of elements in r equal to value.
func (c *Container[T]) CountOf(value T, r Range) int {
	c.validateRange(r)
	eq := c.equalFunc()
	n := 0
	for i := 0; i < r.Length; i++ {
		if eq(value, c.Get(r.Location+i)) {
			n++
		}
	}
	return n
}

func (c *Container[T]) equalFunc() func(a, b T) bool {
	if c.callbacks.Equal != nil {
		return c.callbacks.Equal
	}
	return func(a, b T) bool { return reflect.DeepEqual(a, b) }
}

// Equal reports whether c and other hold the same sequence of
// elements, honoring callback identity before inspecting a single
// element: two containers whose Equal callbacks are not the same
// function are unequal even at count 0.
func (c *Container[T]) Equal(other *Container[T]) bool {
	if c == other {
		return true
	}
	if c.count != other.count {
		return false
	}
	if !objrt.SameEqual(c.callbacks, other.callbacks) {
		return false
	}
	if c.count == 0 {
		return true
	}
	if c.repr == reprStore && other.repr == reprStore && c.callbacks.Equal == nil && other.callbacks.Equal == nil {
		return c.store.Equal(other.store, func(a, b T) bool { return reflect.DeepEqual(a, b) })
	}
	eq := c.equalFunc()
	for i := 0; i < c.count; i++ {
		if !eq(c.Get(i), other.Get(i)) {
			return false
		}
	}
	return true
}

// Hash returns a hash of c. It is intentionally weak — equal to
// Count() — because this is a correctness requirement placed on it by
// the rest of the runtime's type system (two equal containers of
// different lengths can never happen, but two different containers of
// the same length legitimately hash the same), not a performance goal.
func (c *Container[T]) Hash() int { return c.count }

// Describe renders a human-readable form of c, using
// callbacks.Describe per element if present. Results are memoized in a
// small LRU keyed by mutation count, so repeated diagnostic calls
// between mutations don't re-walk the whole container; this cache is
// consulted only here; it has no bearing on any read or mutation path.
func (c *Container[T]) Describe() string {
	if c.describeCache == nil {
		c.describeCache = cache.NewLRU(16)
	}
	key := c.mutationCounter
	v, _ := c.describeCache.GetOrLoad(key, func(any) (any, error) {
		return c.describeUncached(), nil
	})
	return v.(string)
}

func (c *Container[T]) describeUncached() string {
	var b []byte
	b = append(b, '(')
	for i := 0; i < c.count; i++ {
		if i > 0 {
			b = append(b, ", "...)
		}
		v := c.Get(i)
		if c.callbacks.Describe != nil {
			b = append(b, c.callbacks.Describe(v)...)
		} else {
			b = append(b, fmt.Sprint(v)...)
		}
	}
	b = append(b, ')')
	return string(b)
}
