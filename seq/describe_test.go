// Copyright (c) 2026 The objrt Authors

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package seq_test

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vimcore/objrt/objrt"
	"github.com/vimcore/objrt/seq"
)

func TestDescribeUsesCallback(t *testing.T) {
	cb := objrt.Callbacks[int]{Describe: func(v int) string { return "#" + strconv.Itoa(v) }}
	c := seq.CreateMutable(0, cb)
	c.Append(1)
	c.Append(2)
	assert.Equal(t, "(#1, #2)", c.Describe())
}

func TestDescribeWithoutCallbackDoesNotPanic(t *testing.T) {
	c := seq.CreateMutable(0, noCallbacks())
	c.Append(1)
	assert.NotPanics(t, func() { c.Describe() })
}

func TestRetainReleaseCalledOnReplace(t *testing.T) {
	var retained, released []int
	cb := objrt.Callbacks[int]{
		Retain:  func(v int) int { retained = append(retained, v); return v },
		Release: func(v int) { released = append(released, v) },
	}
	c := seq.CreateMutable(0, cb)
	c.Append(1)
	c.Append(2)
	assert.Equal(t, []int{1, 2}, retained)

	c.SetAt(0, 99)
	assert.Equal(t, []int{1, 2, 99}, retained)
	assert.Equal(t, []int{1}, released)
}
