// Copyright (c) 2026 The objrt Authors

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package seq

import (
	"sort"

	"github.com/vimcore/objrt/objrt"
)

// Sort orders r in place according to cmp. Stability is unspecified —
// the source's own comment notes it uses "a quicksort-equivalent" and
// documents no stability guarantee, so this uses sort.Slice rather
// than sort.SliceStable.
func (c *Container[T]) Sort(r Range, cmp objrt.CompareFunc[T], ctx any) {
	c.requireMutable()
	c.validateRange(r)
	if r.Length <= 1 {
		return
	}
	switch c.repr {
	case reprDeque:
		s := c.deque.buckets[c.deque.leftIndex+r.Location : c.deque.leftIndex+r.Location+r.Length]
		sort.Slice(s, func(i, j int) bool { return cmp(&s[i], &s[j], ctx) < 0 })
	case reprStore:
		values := c.store.GetRange(r.Location, r.Length)
		sort.Slice(values, func(i, j int) bool { return cmp(&values[i], &values[j], ctx) < 0 })
		c.store.ReplaceRange(r.Location, r.Length, values)
	}
	c.mutationCounter++
}

// BSearch requires r already sorted per cmp; it returns the index at
// which value would be inserted to keep that order, using the
// first-greater-than-or-equal discipline: the result is always in
// [r.Location, r.Location+r.Length].
func (c *Container[T]) BSearch(r Range, value T, cmp objrt.CompareFunc[T], ctx any) int {
	c.validateRange(r)
	idx := sort.Search(r.Length, func(i int) bool {
		v := c.Get(r.Location + i)
		return cmp(&v, &value, ctx) >= 0
	})
	return r.Location + idx
}
