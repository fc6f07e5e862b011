// Copyright (c) 2026 The objrt Authors

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package seq

import "github.com/vimcore/objrt/objrt"

// deque is the Mutable-Deque representation: a ring buffer holding the
// live elements at [leftIndex, leftIndex+count) within buckets.
// capacity is always a power of two, clamped to maxDequeCapacity. bias
// records the sign of the last re-centering, so consecutive
// re-centerings under an oscillating insert/delete pattern don't thrash
// back and forth — the same tie-break __CFArrayRepositionDequeRegions
// uses. allocator/oom/weak mirror the owning Container's fields, so a
// reallocation triggered mid-reposition uses the same Allocator and
// registers the buffer as scanned or unscanned correctly.
type deque[T any] struct {
	buckets   []T
	leftIndex int
	capacity  int
	bias      int

	allocator objrt.Allocator[T]
	oom       objrt.OOMFunc
	weak      bool
}

func (d *deque[T]) hint() objrt.AllocHint {
	if d.weak {
		return objrt.HintUnscanned
	}
	return objrt.HintScanned
}

// dequeRoundUpCapacity rounds n up to the next power of two, minimum 4,
// clamped to maxDequeCapacity.
func dequeRoundUpCapacity(n int) int {
	capacity := 4
	for capacity < n {
		capacity <<= 1
	}
	if capacity > maxDequeCapacity {
		capacity = maxDequeCapacity
	}
	return capacity
}

// newDeque returns an empty deque with at least minCapacity slots,
// centered.
func newDeque[T any](minCapacity int, allocator objrt.Allocator[T], oom objrt.OOMFunc, weak bool) *deque[T] {
	capacity := dequeRoundUpCapacity(minCapacity)
	d := &deque[T]{
		leftIndex: capacity / 2,
		capacity:  capacity,
		allocator: allocator,
		oom:       oom,
		weak:      weak,
	}
	d.buckets = objrt.Grow[T](d.allocator, d.oom, nil, capacity, d.hint(), d, "seq.deque")
	return d
}

func (d *deque[T]) get(idx int) T {
	return d.buckets[d.leftIndex+idx]
}

func (d *deque[T]) getRange(idx, count int, out []T) {
	copy(out, d.buckets[d.leftIndex+idx:d.leftIndex+idx+count])
}

func (d *deque[T]) setRange(idx int, values []T) {
	copy(d.buckets[d.leftIndex+idx:d.leftIndex+idx+len(values)], values)
}

// zero clears [from, from+n) in the ring buffer, the Go analog of the
// source's bzero calls that keep a scanning collector from seeing
// stale pointers in newly exposed slots.
func (d *deque[T]) zero(from, n int) {
	var zero T
	for i := 0; i < n; i++ {
		d.buckets[from+i] = zero
	}
}

// reposition shifts the deque's three regions (A before the range, B
// the range itself, C after it) to make room for a replacement of
// newCount elements, growing and re-centering the underlying buffer
// when necessary. Ported directly from
// __CFArrayRepositionDequeRegions: the reallocate / move-C / move-A /
// re-center branch structure is preserved exactly, since spec.md binds
// seq's behavior to reproduce it including the bias sign tie-break.
func (d *deque[T]) reposition(count int, r Range, newCount int) {
	futureCnt := count - r.Length + newCount
	L := d.leftIndex
	A := r.Location
	B := r.Length
	C := count - B - A
	R := d.capacity - count - L
	numNewElems := newCount - B

	wiggle := d.capacity >> 17
	if wiggle < 4 {
		wiggle = 4
	}

	if d.capacity < futureCnt || (count < futureCnt && L+R < wiggle) {
		repositionCount().Add(1)
		capacity := dequeRoundUpCapacity(futureCnt + wiggle)
		newBuckets := objrt.Grow[T](d.allocator, d.oom, nil, capacity, d.hint(), d, "seq.deque.reposition")
		oldL := L
		newL := (capacity - futureCnt) / 2
		oldC0 := oldL + A + B
		newC0 := newL + A + newCount
		if A > 0 {
			copy(newBuckets[newL:newL+A], d.buckets[oldL:oldL+A])
		}
		if C > 0 {
			copy(newBuckets[newC0:newC0+C], d.buckets[oldC0:oldC0+C])
		}
		d.buckets = newBuckets
		d.leftIndex = newL
		d.capacity = capacity
		d.bias = 0
		return
	}

	switch {
	case (numNewElems < 0 && C < A) || (numNewElems <= R && C < A):
		// move C: deleting and C is smaller, or inserting with room to
		// the right and C is smaller.
		oldC0 := L + A + B
		newC0 := L + A + newCount
		if C > 0 {
			copy(d.buckets[newC0:newC0+C], d.buckets[oldC0:oldC0+C])
		}
		if oldC0 > newC0 {
			d.zero(newC0+C, oldC0-newC0)
		}
	case numNewElems < 0 || (numNewElems <= L && A <= C):
		// move A: deleting (covers the remaining delete cases), or
		// inserting with room to the left and A is smaller or equal.
		oldL := L
		newL := L - numNewElems
		d.leftIndex = newL
		if A > 0 {
			copy(d.buckets[newL:newL+A], d.buckets[oldL:oldL+A])
		}
		if newL > oldL {
			d.zero(oldL, newL-oldL)
		}
	default:
		// must be inserting, and neither side has room on its preferred
		// edge: re-center everything, breaking ties with the sign of
		// the previous re-centering.
		oldL := L
		newL := (L + R - numNewElems) / 2
		oldBias := d.bias
		if newL < oldL {
			d.bias = -1
		} else {
			d.bias = 1
		}
		if oldBias < 0 {
			newL = newL - newL/2
		} else if oldBias > 0 {
			newL = newL + newL/2
		}
		oldC0 := oldL + A + B
		newC0 := newL + A + newCount
		d.leftIndex = newL
		if newL < oldL {
			if A > 0 {
				copy(d.buckets[newL:newL+A], d.buckets[oldL:oldL+A])
			}
			if C > 0 {
				copy(d.buckets[newC0:newC0+C], d.buckets[oldC0:oldC0+C])
			}
			if oldC0 > newC0 {
				d.zero(newC0+C, oldC0-newC0)
			}
		} else {
			if C > 0 {
				copy(d.buckets[newC0:newC0+C], d.buckets[oldC0:oldC0+C])
			}
			if A > 0 {
				copy(d.buckets[newL:newL+A], d.buckets[oldL:oldL+A])
			}
			if newL > oldL {
				d.zero(oldL, newL-oldL)
			}
		}
	}
}

// setCapacity grows the deque's backing buffer to at least cap slots,
// advisory-only and a no-op if it already holds that much; used by
// Container.SetCapacity.
func (d *deque[T]) setCapacity(count, cap int) {
	capacity := dequeRoundUpCapacity(cap)
	if capacity <= d.capacity {
		return
	}
	newBuckets := objrt.Grow[T](d.allocator, d.oom, nil, capacity, d.hint(), d, "seq.deque.setcapacity")
	newLeft := capacity / 2
	copy(newBuckets[newLeft:newLeft+count], d.buckets[d.leftIndex:d.leftIndex+count])
	d.buckets = newBuckets
	d.leftIndex = newLeft
	d.capacity = capacity
	d.bias = 0
}
