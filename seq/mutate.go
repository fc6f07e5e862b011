// Copyright (c) 2026 The objrt Authors

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package seq

import (
	"github.com/vimcore/objrt/leafstore"
	"github.com/vimcore/objrt/objrt"
)

// ReplaceRange is the representation transition algorithm at the heart
// of every mutation: it removes r's current elements and puts values
// in their place, promoting or demoting representation as the new
// count crosses maxDequeCapacity / halfMaxDequeCapacity. Ported from
// _CFArrayReplaceValues.
func (c *Container[T]) ReplaceRange(r Range, values []T) {
	c.requireMutable()
	c.validateRange(r)
	if c.finalized {
		return
	}
	newCount := len(values)
	futureCount := c.count - r.Length + newCount

	// Retain new values before releasing old ones, so the common case of
	// a new value overlapping with (or being) an existing one works.
	retained := make([]T, newCount)
	for i, v := range values {
		retained[i] = retain(c.callbacks, v, c.weak)
	}
	if r.Length > 0 {
		for i := 0; i < r.Length; i++ {
			release(c.callbacks, c.Get(r.Location+i), c.weak)
		}
	}

	switch c.repr {
	case reprStore:
		if r.Length < newCount {
			c.store.InsertRange(r.Location+r.Length, make([]T, newCount-r.Length))
		} else if newCount < r.Length {
			c.store.DeleteRange(r.Location+newCount, r.Length-newCount)
		}
		if futureCount <= halfMaxDequeCapacity {
			c.demoteStoreToDeque(futureCount)
		}
	case reprDeque:
		if futureCount >= maxDequeCapacity {
			c.promoteDequeToStore(r, newCount)
		} else if r.Length != newCount {
			c.deque.reposition(c.count, r, newCount)
		}
	}

	if newCount > 0 {
		switch c.repr {
		case reprStore:
			c.store.ReplaceRange(r.Location, newCount, retained)
		case reprDeque:
			c.deque.setRange(r.Location, retained)
		}
	}

	c.count = futureCount
	c.mutationCounter++
	mutationCount().Add(1)
}

// promoteDequeToStore converts the deque representation to a
// leafstore-backed one, then applies the pending range adjustment.
// Mirrors __CFArrayConvertDequeToStore followed by the Store-side
// region adjustment _CFArrayReplaceValues performs right after
// promoting.
func (c *Container[T]) promoteDequeToStore(r Range, newCount int) {
	store := leafstore.CreateWithAllocator[T](0, c.allocator, c.oom)
	if c.count > 0 {
		store.InsertRange(0, c.GetRange(0, c.count))
	}
	c.deque = nil
	c.store = store
	c.repr = reprStore
	promoteCount().Add(1)
	logger.Debug("representation promoted", "from", "deque", "to", "store", "count", c.count)

	if r.Length < newCount {
		store.InsertRange(r.Location+r.Length, make([]T, newCount-r.Length))
	} else if newCount < r.Length {
		store.DeleteRange(r.Location+newCount, r.Length-newCount)
	}
}

// demoteStoreToDeque converts the store representation to a deque
// sized to futureCount, with slack per __CFArrayConvertStoreToDeque
// ("do not resize down to a completely tight deque" — rounds to
// futureCount+6 before the power-of-two round-up).
func (c *Container[T]) demoteStoreToDeque(futureCount int) {
	capacity := dequeRoundUpCapacity(futureCount + 6)
	hint := objrt.HintScanned
	if c.weak {
		hint = objrt.HintUnscanned
	}
	d := &deque[T]{
		buckets:   objrt.Grow[T](c.allocator, c.oom, nil, capacity, hint, c, "seq.deque.demote"),
		capacity:  capacity,
		allocator: c.allocator,
		oom:       c.oom,
		weak:      c.weak,
	}
	d.leftIndex = (capacity - futureCount) / 2
	if futureCount > 0 {
		copy(d.buckets[d.leftIndex:d.leftIndex+futureCount], c.store.GetRange(0, futureCount))
	}
	c.store = nil
	c.deque = d
	c.repr = reprDeque
	demoteCount().Add(1)
	logger.Debug("representation demoted", "from", "store", "to", "deque", "count", futureCount)
}

// Append adds v at the end.
func (c *Container[T]) Append(v T) { c.ReplaceRange(Range{c.count, 0}, []T{v}) }

// Insert places v at idx, shifting everything at or after idx right.
func (c *Container[T]) Insert(idx int, v T) { c.ReplaceRange(Range{idx, 0}, []T{v}) }

// SetAt overwrites the element at idx with v, releasing the old value
// and retaining the new one.
func (c *Container[T]) SetAt(idx int, v T) { c.ReplaceRange(Range{idx, 1}, []T{v}) }

// Remove deletes the element at idx.
func (c *Container[T]) Remove(idx int) { c.ReplaceRange(Range{idx, 1}, nil) }

// RemoveAll empties the container, releasing every element.
func (c *Container[T]) RemoveAll() { c.ReplaceRange(Range{0, c.count}, nil) }

// AppendRange copies r of src onto the end of c. The source range is
// always materialized into a fresh slice first (GetRange already
// copies), so c and src may safely be the same container.
func (c *Container[T]) AppendRange(src *Container[T], r Range) {
	values := src.GetRange(r.Location, r.Length)
	c.ReplaceRange(Range{c.count, 0}, values)
}

// Exchange swaps the elements at i and j without touching retain/
// release — CFArrayExchangeValuesAtIndices performs a raw pointer swap,
// not a replace, since no element identity changes hands.
func (c *Container[T]) Exchange(i, j int) {
	c.requireMutable()
	c.validateRange(Range{i, 0})
	c.validateRange(Range{j, 0})
	if c.finalized {
		return
	}
	vi, vj := c.Get(i), c.Get(j)
	c.setRaw(i, vj)
	c.setRaw(j, vi)
	c.mutationCounter++
	mutationCount().Add(1)
}

func (c *Container[T]) setRaw(idx int, v T) {
	switch c.repr {
	case reprDeque:
		c.deque.buckets[c.deque.leftIndex+idx] = v
	case reprStore:
		c.store.ReplaceRange(idx, 1, []T{v})
	}
}

// SetCapacity advises the container to pre-grow to hold at least cap
// elements without further reallocation. Advisory only, primarily
// useful for a caller that knows its target count ahead of time and
// wants to skip the repeated doubling repositioning would otherwise do
// — a true no-op on Mutable-Store, and on a Mutable-Deque already at or
// above the requested capacity.
func (c *Container[T]) SetCapacity(cap int) {
	c.requireMutable()
	if c.repr == reprDeque {
		c.deque.setCapacity(c.count, cap)
	}
}
