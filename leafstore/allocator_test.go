// Copyright (c) 2026 The objrt Authors

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package leafstore_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vimcore/objrt/leafstore"
	"github.com/vimcore/objrt/objrt"
)

func TestCreateWithAllocatorPanicsOnZeroSizedValue(t *testing.T) {
	assert.PanicsWithValue(t, leafstore.ErrValueSizeMismatch, func() {
		leafstore.CreateWithAllocator[struct{}](0, nil, nil)
	})
}

type failingAllocator struct{}

func (failingAllocator) Allocate(n int, hint objrt.AllocHint) ([]int, error) {
	return nil, assert.AnError
}

func (failingAllocator) Reallocate(cur []int, n int, hint objrt.AllocHint) ([]int, error) {
	return nil, assert.AnError
}

func TestOOMFuncHaltsByDefault(t *testing.T) {
	s := leafstore.CreateWithAllocator[int](0, failingAllocator{}, nil)
	assert.Panics(t, func() { s.InsertRange(0, []int{1}) })
}

func TestOOMFuncRecoversWhenItReturnsTrue(t *testing.T) {
	called := false
	oom := func(failingObject any, className, message string) bool {
		called = true
		return true
	}
	s := leafstore.CreateWithAllocator[int](0, failingAllocator{}, oom)
	assert.NotPanics(t, func() { s.InsertRange(0, []int{1, 2, 3}) })
	assert.True(t, called)
	assert.Equal(t, 3, s.Count())
	assert.Equal(t, []int{1, 2, 3}, s.GetRange(0, 3))
}
