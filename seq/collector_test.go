// Copyright (c) 2026 The objrt Authors

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package seq_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vimcore/objrt/objrt"
	"github.com/vimcore/objrt/seq"
)

func TestWeakContainerNeverRetainsOrReleases(t *testing.T) {
	var retained, released []int
	cb := objrt.Callbacks[int]{
		Retain:  func(v int) int { retained = append(retained, v); return v },
		Release: func(v int) { released = append(released, v) },
	}
	c := seq.CreateWeakMutable(0, cb)
	c.Append(1)
	c.Append(2)
	c.Remove(0)
	assert.Empty(t, retained)
	assert.Empty(t, released)
	assert.Equal(t, []int{2}, c.GetRange(0, c.Count()))
}

func TestFinalizeReleasesOnceAndSkipsFurtherMutationCallbacks(t *testing.T) {
	var released []int
	cb := objrt.Callbacks[int]{
		Release: func(v int) { released = append(released, v) },
	}
	c := seq.CreateMutable(0, cb)
	c.Append(1)
	c.Append(2)

	c.Finalize()
	assert.Equal(t, []int{1, 2}, released)

	// Finalize is idempotent: a second call must not double-release.
	c.Finalize()
	assert.Equal(t, []int{1, 2}, released)

	// Mutation after finalization is inert.
	beforeCount, beforeMut := c.Count(), c.MutationCount()
	c.Append(3)
	c.Remove(0)
	assert.Equal(t, beforeCount, c.Count())
	assert.Equal(t, beforeMut, c.MutationCount())
}

func TestFinalizeOnWeakContainerSkipsRelease(t *testing.T) {
	var released []int
	cb := objrt.Callbacks[int]{
		Release: func(v int) { released = append(released, v) },
	}
	c := seq.CreateWeakMutable(0, cb)
	c.Append(1)
	c.Finalize()
	assert.Empty(t, released)
}

type failingAllocator struct{}

func (failingAllocator) Allocate(n int, hint objrt.AllocHint) ([]int, error) {
	return nil, assert.AnError
}

func (failingAllocator) Reallocate(cur []int, n int, hint objrt.AllocHint) ([]int, error) {
	return nil, assert.AnError
}

func TestOOMFuncHaltsByDefault(t *testing.T) {
	// The deque's first buffer is allocated by the constructor, so that
	// is where the failing allocator first reports out-of-memory.
	assert.Panics(t, func() {
		c := seq.CreateMutableWithAllocator(0, noCallbacks(), failingAllocator{}, nil)
		c.Append(1)
	})
}

func TestOOMFuncRecoversWhenItReturnsTrue(t *testing.T) {
	called := false
	oom := func(failingObject any, className, message string) bool {
		called = true
		return true
	}
	c := seq.CreateMutableWithAllocator(0, noCallbacks(), failingAllocator{}, oom)
	assert.NotPanics(t, func() { c.Append(1) })
	assert.True(t, called)
	assert.Equal(t, 1, c.Get(0))
}
