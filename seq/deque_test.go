// Copyright (c) 2026 The objrt Authors

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package seq

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/vimcore/objrt/objrt"
)

func TestDequeRoundUpCapacity(t *testing.T) {
	assert.Equal(t, 4, dequeRoundUpCapacity(0))
	assert.Equal(t, 4, dequeRoundUpCapacity(4))
	assert.Equal(t, 8, dequeRoundUpCapacity(5))
	assert.Equal(t, 16, dequeRoundUpCapacity(9))
	assert.Equal(t, maxDequeCapacity, dequeRoundUpCapacity(maxDequeCapacity+1))
}

// Boundary scenario: a mutable container with capacity 8, five inserts
// at index 0 in reverse order. left_index should migrate leftward as
// each insert eats into the left slack, and bias should end up
// recording the sign of the last re-centering the reposition algorithm
// performed.
func TestDequeRecenterOnReverseInsertsAtFront(t *testing.T) {
	c := &Container[int]{repr: reprDeque, deque: newDeque[int](8, nil, nil, false)}
	initialLeft := c.deque.leftIndex

	for _, v := range []int{0, 1, 2, 3, 4} {
		c.Insert(0, v)
	}

	assert.Equal(t, []int{4, 3, 2, 1, 0}, c.GetRange(0, 5))
	if c.deque.leftIndex >= initialLeft {
		t.Fatalf("expected left_index to migrate leftward from %d, got %d\n%s",
			initialLeft, c.deque.leftIndex, spew.Sdump(c.deque))
	}
}

func TestDequeRepositionMoveCAndMoveA(t *testing.T) {
	c := &Container[int]{repr: reprDeque, deque: newDeque[int](16, nil, nil, false)}
	for i := 0; i < 6; i++ {
		c.Append(i)
	}
	// Insert in the middle: should move whichever of A/C region is
	// cheaper without triggering a reallocation (plenty of slack at 16).
	c.Insert(3, 99)
	assert.Equal(t, []int{0, 1, 2, 99, 3, 4, 5}, c.GetRange(0, 7))

	c.Remove(3)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, c.GetRange(0, 6))
}

func TestDequeReallocatesWhenCapacityInsufficient(t *testing.T) {
	c := &Container[int]{repr: reprDeque, deque: newDeque[int](4, nil, nil, false)}
	for i := 0; i < 40; i++ {
		c.Append(i)
	}
	assert.Equal(t, 40, c.Count())
	for i := 0; i < 40; i++ {
		assert.Equal(t, i, c.Get(i))
	}
	assert.GreaterOrEqual(t, c.deque.capacity, 40)
}

func TestSetCapacityAdvisory(t *testing.T) {
	c := CreateMutable[int](0, objrt.NullCallbacks[int]())
	before := c.deque.capacity
	c.SetCapacity(1000)
	assert.Greater(t, c.deque.capacity, before)
	// Already sufficient: no-op, capacity unchanged.
	after := c.deque.capacity
	c.SetCapacity(10)
	assert.Equal(t, after, c.deque.capacity)
}
