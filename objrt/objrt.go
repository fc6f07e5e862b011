// Copyright (c) 2026 The objrt Authors

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package objrt holds the contracts shared by seq and leafstore: the
// allocator interface they consume, the per-element callback record,
// and the out-of-memory reporting hook. Neither seq nor leafstore
// depends on the other's internals; both depend only on objrt.
package objrt

import (
	"reflect"

	"github.com/pkg/errors"
)

// AllocHint tells an Allocator how the memory it returns will be used,
// mirroring CFAllocator's scanned/unscanned/opaque memory hints.
// HintScanned/HintUnscanned are how a strong-vs-weak Container tells a
// caller-supplied Allocator whether the buffer it is about to back
// needs to be registered with an external scanning collector (spec.md
// §5 "Collector interop") — Go's own garbage collector always scans
// reachable memory regardless of the hint, so this only has an effect
// when Allocator is backed by something other than the Go runtime's own
// allocator. HintOpaque is for buffers with no such distinction (the
// Immutable-Inline representation, which has no weak/strong variant).
type AllocHint int

const (
	HintOpaque AllocHint = iota
	HintScanned
	HintUnscanned
)

// Allocator is the minimal allocator interface the core consumes, typed
// over the element kind it allocates rather than raw bytes: a generic
// Store[T]/Container[T] must never reinterpret a T as a byte buffer,
// since T may be an interface or pointer type the garbage collector
// needs to see through every slot (see SPEC_FULL.md's byte-addressing
// Open Question). A nil Allocator is valid and means "use the Go
// runtime's allocator" (make/copy); a non-nil one lets a caller plug in
// an arena, a pool, or a fallible allocator that reports out-of-memory
// through OOMFunc.
type Allocator[T any] interface {
	Allocate(n int, hint AllocHint) ([]T, error)
	Reallocate(cur []T, n int, hint AllocHint) ([]T, error)
}

// OOMFunc reports an allocation failure for failingObject (typically a
// *seq.Container or *leafstore.Store, passed as any to avoid an import
// cycle) of the named class. Returning false means "halt" — the caller
// must not continue as if the allocation had succeeded; returning true
// means the caller elected to recover, and Grow falls back to the Go
// runtime allocator rather than losing the buffer's existing contents.
type OOMFunc func(failingObject any, className, message string) bool

// Grow returns a slice of length n holding cur's existing contents,
// using a's Allocate/Reallocate when a is non-nil and falling back to
// make/copy otherwise. className and failingObject identify the caller
// to oom when the allocator reports a failure; a nil oom, or one that
// returns false, halts by panicking with a wrapped error rather than
// silently returning undersized memory.
func Grow[T any](a Allocator[T], oom OOMFunc, cur []T, n int, hint AllocHint, failingObject any, className string) []T {
	if a == nil {
		buf := make([]T, n)
		copy(buf, cur)
		return buf
	}
	var buf []T
	var err error
	if cur == nil {
		buf, err = a.Allocate(n, hint)
	} else {
		buf, err = a.Reallocate(cur, n, hint)
	}
	if err == nil {
		return buf
	}
	wrapped := errors.Wrapf(err, "objrt: allocating %s", className)
	if oom == nil || !oom(failingObject, className, wrapped.Error()) {
		panic(wrapped)
	}
	buf = make([]T, n)
	copy(buf, cur)
	return buf
}

// Callbacks is the immutable per-element callback record described in
// spec.md §3.1. Any field may be nil; when Retain/Release are both nil
// the container performs raw copies and never touches C.
//
// The package provides one canonical record, NullCallbacks (every field
// nil); it defines no type-callbacks record, so any other record is
// "custom". Equal-callback identity, not element
// values, decides whether two containers with custom callbacks can
// ever compare equal (spec.md §4.1 "Tie-breaks").
type Callbacks[T any] struct {
	Retain   func(v T) T
	Release  func(v T)
	Equal    func(a, b T) bool
	Describe func(v T) string
}

// NullCallbacks returns the canonical all-absent callback record.
func NullCallbacks[T any]() Callbacks[T] {
	return Callbacks[T]{}
}

// IsNull reports whether c is the canonical null-callbacks record.
func (c Callbacks[T]) IsNull() bool {
	return c.Retain == nil && c.Release == nil && c.Equal == nil && c.Describe == nil
}

// SameEqual reports whether a and b share the same Equal callback
// identity, per spec.md's "callback identity is compared before
// element-wise comparison" rule. Two nil callbacks are the same
// (both mean identity comparison); a nil and a non-nil are never the
// same. Comparing the underlying function pointer is the only way to
// compare Go func values for identity — there is no third-party
// library in the retrieval pack that wraps this narrower than
// reflect already does.
func SameEqual[T any](a, b Callbacks[T]) bool {
	if (a.Equal == nil) != (b.Equal == nil) {
		return false
	}
	if a.Equal == nil {
		return true
	}
	return reflect.ValueOf(a.Equal).Pointer() == reflect.ValueOf(b.Equal).Pointer()
}

// CompareFunc compares a and b for ordering purposes, used by Sort and
// BSearch. ctx is opaque caller context, threaded through exactly as
// spec.md §4.1 describes ("The comparator receives pointers to slots").
type CompareFunc[T any] func(a, b *T, ctx any) int

const (
	OrderedAscending  = -1
	OrderedSame       = 0
	OrderedDescending = 1
)
