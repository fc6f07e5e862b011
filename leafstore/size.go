// Copyright (c) 2026 The objrt Authors

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package leafstore

import "unsafe"

// sizeOfValue returns the byte-budget unit a Store[T] uses for leaf
// capacity bookkeeping. It is never used to reinterpret a T's memory
// as bytes — only to carry spec-mandated byte constants (12288,
// PAGE_LIMIT, 64-byte rounding) through the same arithmetic CFStorage.c
// performs; every actual value move is a typed copy([]T, []T).
func sizeOfValue[T any]() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}
