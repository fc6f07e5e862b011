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

func intCompare(a, b *int, _ any) int {
	switch {
	case *a < *b:
		return objrt.OrderedAscending
	case *a > *b:
		return objrt.OrderedDescending
	default:
		return objrt.OrderedSame
	}
}

func TestSortDeque(t *testing.T) {
	c := seq.CreateMutable(0, noCallbacks())
	for _, v := range []int{5, 3, 4, 1, 2} {
		c.Append(v)
	}
	c.Sort(seq.Range{Location: 0, Length: 5}, intCompare, nil)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, c.GetRange(0, 5))
}

func TestBSearch(t *testing.T) {
	c := seq.CreateMutable(0, noCallbacks())
	for _, v := range []int{1, 3, 5, 7, 9} {
		c.Append(v)
	}
	r := seq.Range{Location: 0, Length: 5}
	assert.Equal(t, 0, c.BSearch(r, 1, intCompare, nil))
	assert.Equal(t, 2, c.BSearch(r, 4, intCompare, nil))
	assert.Equal(t, 5, c.BSearch(r, 10, intCompare, nil))
	assert.Equal(t, 0, c.BSearch(r, -5, intCompare, nil))
}

func TestSortNoopOnShortRange(t *testing.T) {
	c := seq.CreateMutable(0, noCallbacks())
	c.Append(1)
	before := c.MutationCount()
	c.Sort(seq.Range{Location: 0, Length: 1}, intCompare, nil)
	assert.Equal(t, before, c.MutationCount())
}
