// Copyright (c) 2026 The objrt Authors

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package leafstore

import "github.com/vimcore/objrt/objrt"

// node is one node of the 2-3 tree. A leaf holds its values in a flat
// buffer sized to capacityBytes, of which only the first numBytes are
// logically valid, exactly mirroring CFStorage.c's leaf.memory/
// capacityInBytes/numBytes triple; values is nil until something
// forces allocation, matching the source's lazy leaf materialization.
// An interior node holds up to three children.
type node[T any] struct {
	numBytes int
	isLeaf   bool

	// leaf-only; len(values) == capacityBytes/valueSize, never resliced
	values        []T
	capacityBytes int

	// interior-only
	children [3]*node[T]
}

func newLeafNode[T any](numBytes int) *node[T] {
	nodeGauge().Add(1)
	return &node[T]{isLeaf: true, numBytes: numBytes}
}

func newInteriorNode[T any]() *node[T] {
	nodeGauge().Add(1)
	return &node[T]{isLeaf: false}
}

func numChildren[T any](n *node[T]) int {
	if n == nil || n.isLeaf {
		return 0
	}
	if n.children[2] != nil {
		return 3
	}
	if n.children[1] != nil {
		return 2
	}
	if n.children[0] != nil {
		return 1
	}
	return 0
}

// allocLeafMemory ensures n's backing buffer is at least capBytes in
// size, rounding the way CFStorage.c's
// __CFStorageAllocLeafNodeMemory does: below half a page, round up to
// the next 64 bytes; above, round up to a page and clamp to
// maxLeafCapacity. compact forces a reallocation down to the exact
// rounded size instead of only growing; existing content up to the
// smaller of the old and new sizes is preserved, like realloc.
func (s *Store[T]) allocLeafMemory(n *node[T], capBytes int, compact bool) {
	if capBytes > pageLimit {
		capBytes = roundToPage(capBytes)
		if capBytes > s.maxLeafCapacity {
			capBytes = s.maxLeafCapacity
		}
	} else {
		capBytes = ((capBytes + 63) / 64) * 64
	}
	needsRealloc := capBytes != n.capacityBytes
	if !compact {
		needsRealloc = capBytes > n.capacityBytes
	}
	if !needsRealloc {
		return
	}
	capSlots := 0
	if s.valueSize > 0 {
		capSlots = capBytes / s.valueSize
	}
	n.values = objrt.Grow(s.allocator, s.oom, n.values, capSlots, objrt.HintScanned, s, "leafstore.leaf")
	n.capacityBytes = capBytes
}

func (s *Store[T]) slotsOf(numBytes int) int {
	if s.valueSize == 0 {
		return 0
	}
	return numBytes / s.valueSize
}

// locateChild returns the child index and the relative byte offset of
// byteNum within that child. forInsertion shifts the boundary so an
// insertion exactly at a child boundary lands in the earlier child,
// matching __CFStorageFindChild's forInsertion semantics.
func locateChild[T any](n *node[T], byteNum int, forInsertion bool) (childNum, relativeByteNum int) {
	if forInsertion {
		byteNum--
	}
	switch {
	case byteNum < n.children[0].numBytes:
		childNum = 0
	case byteNum-n.children[0].numBytes < n.children[1].numBytes:
		childNum = 1
		byteNum -= n.children[0].numBytes
	default:
		childNum = 2
		byteNum -= n.children[0].numBytes + n.children[1].numBytes
	}
	if forInsertion {
		byteNum++
	}
	return childNum, byteNum
}

// byteRange is a [location, location+length) span expressed in bytes,
// mirroring CFRange's use throughout CFStorage.c.
type byteRange struct {
	location int
	length   int
}

// findByte locates the node and in-node slot index holding byteNum,
// lazily materializing leaf backing storage along the way. consecutive,
// if non-nil, receives the byte range of values contiguous with this
// one in the same leaf.
func (s *Store[T]) findByte(n *node[T], byteNum int, consecutive *byteRange) (*node[T], int) {
	if n.isLeaf {
		if consecutive != nil {
			*consecutive = byteRange{0, n.numBytes}
		}
		s.allocLeafMemory(n, n.numBytes, false)
		return n, s.slotsOf(byteNum)
	}
	childNum, relativeByteNum := locateChild(n, byteNum, false)
	resultNode, slot := s.findByte(n.children[childNum], relativeByteNum, consecutive)
	if consecutive != nil {
		if childNum > 0 {
			consecutive.location += n.children[0].numBytes
		}
		if childNum > 1 {
			consecutive.location += n.children[1].numBytes
		}
	}
	return resultNode, slot
}

// insert splits or grows leaves as needed to make room for size bytes
// at byteNum within n, returning a sibling node to be inserted
// immediately after n when the leaf had to split. Mirrors
// __CFStorageInsert exactly, including its four leaf-split cases.
func (s *Store[T]) insert(n *node[T], byteNum, size, absoluteByteNum int) *node[T] {
	if n.isLeaf {
		if size+n.numBytes > s.maxLeafCapacity {
			splitCount().Add(1)
			logger.Debug("leaf split", "num_bytes", n.numBytes, "insert_size", size)
			switch {
			case byteNum == n.numBytes: // append at end
				newNode := newLeafNode[T](size)
				s.setCache(newNode, s.slotsOf(absoluteByteNum), s.slotsOf(size))
				return newNode
			case byteNum == 0: // insert at front: swap n and the new node
				nodeGauge().Add(1)
				newNode := &node[T]{isLeaf: true, numBytes: n.numBytes, values: n.values, capacityBytes: n.capacityBytes}
				n.numBytes = size
				n.values = nil
				n.capacityBytes = 0
				s.setCache(n, s.slotsOf(absoluteByteNum), s.slotsOf(size))
				return newNode
			case byteNum+size <= s.maxLeafCapacity: // insert fits within this child
				oldNumBytes := n.numBytes
				newNode := newLeafNode[T](oldNumBytes - byteNum)
				if n.values != nil {
					s.allocLeafMemory(newNode, newNode.numBytes, false)
					copy(newNode.values, n.values[s.slotsOf(byteNum):s.slotsOf(oldNumBytes)])
					s.allocLeafMemory(n, byteNum+size, false)
				}
				n.numBytes = byteNum + size
				s.setCache(n, s.slotsOf(absoluteByteNum-byteNum), s.slotsOf(n.numBytes))
				return newNode
			default: // split across both nodes
				oldNumBytes := n.numBytes
				newNode := newLeafNode[T](oldNumBytes + size - s.maxLeafCapacity)
				if n.values != nil {
					s.allocLeafMemory(newNode, newNode.numBytes, false)
					destSlot := s.slotsOf(byteNum + size - s.maxLeafCapacity)
					copy(newNode.values[destSlot:], n.values[s.slotsOf(byteNum):s.slotsOf(oldNumBytes)])
					s.allocLeafMemory(n, s.maxLeafCapacity, false)
				}
				n.numBytes = s.maxLeafCapacity
				s.setCache(n, s.slotsOf(absoluteByteNum-byteNum), s.slotsOf(n.numBytes))
				return newNode
			}
		}
		// Grows in place, no split needed.
		if n.values != nil {
			s.allocLeafMemory(n, n.numBytes+size, false)
			copy(n.values[s.slotsOf(byteNum+size):], n.values[s.slotsOf(byteNum):s.slotsOf(n.numBytes)])
		}
		n.numBytes += size
		s.setCache(n, s.slotsOf(absoluteByteNum-byteNum), s.slotsOf(n.numBytes))
		return nil
	}

	childNum, relativeByteNum := locateChild(n, byteNum, true)
	newNode := s.insert(n.children[childNum], relativeByteNum, size, absoluteByteNum)
	if newNode == nil {
		n.numBytes += size
		return nil
	}
	if n.children[2] == nil { // room for the new sibling
		if childNum == 0 {
			n.children[2] = n.children[1]
		}
		n.children[childNum+1] = newNode
		n.numBytes += size
		return nil
	}
	another := newInteriorNode[T]()
	switch childNum {
	case 0:
		another.children[0] = n.children[1]
		another.children[1] = n.children[2]
		n.children[1] = newNode
		n.children[2] = nil
	case 1:
		another.children[0] = newNode
		another.children[1] = n.children[2]
		n.children[2] = nil
	default:
		another.children[0] = n.children[2]
		another.children[1] = newNode
		n.children[2] = nil
	}
	n.numBytes = n.children[0].numBytes + n.children[1].numBytes
	another.numBytes = another.children[0].numBytes + another.children[1].numBytes
	return another
}

// delete removes the given byte range from n, recursively walking
// children from the end of the range backward (so indices into
// not-yet-processed children stay valid), then repacking children so
// every remaining interior node has 2 or 3 children. compact controls
// whether shrinking leaves get their backing buffer reallocated down.
func (s *Store[T]) delete(n *node[T], r byteRange, compact bool) {
	if n.isLeaf {
		n.numBytes -= r.length
		if n.values != nil {
			destSlot := s.slotsOf(r.location)
			srcSlot := s.slotsOf(r.location + r.length)
			count := s.slotsOf(n.numBytes) - destSlot
			copy(n.values[destSlot:destSlot+count], n.values[srcSlot:srcSlot+count])
			if compact {
				s.allocLeafMemory(n, n.numBytes, true)
			}
		}
		return
	}

	childrenAreLeaves := n.children[0].isLeaf
	n.numBytes -= r.length
	for r.length > 0 {
		childNum, relativeByteNum := locateChild(n, r.location+r.length, true)
		var toDelete byteRange
		if r.length > relativeByteNum {
			toDelete = byteRange{0, relativeByteNum}
		} else {
			toDelete = byteRange{relativeByteNum - r.length, r.length}
		}
		s.delete(n.children[childNum], toDelete, compact)
		if n.children[childNum].numBytes == 0 {
			for cnt := childNum; cnt < 2; cnt++ {
				n.children[cnt] = n.children[cnt+1]
			}
			n.children[2] = nil
		}
		r.length -= toDelete.length
	}

	if childrenAreLeaves {
		s.collapseLeafChildren(n)
	} else {
		rebalanceInteriorChildren(n)
	}
}

// collapseLeafChildren merges n's (already packed) leaf children back
// into a single leaf when their combined size fits in one leaf's worth
// of capacity, exactly as CFStorage.c's post-delete leaf collapse does.
func (s *Store[T]) collapseLeafChildren(n *node[T]) {
	if n.numBytes <= 0 || n.numBytes > s.maxLeafCapacity {
		return
	}
	first := n.children[0]
	s.allocLeafMemory(first, n.numBytes, false)
	offset := first.numBytes
	if second := n.children[1]; second != nil && second.numBytes > 0 {
		merged := 1
		copy(first.values[s.slotsOf(offset):], second.values[:s.slotsOf(second.numBytes)])
		offset += second.numBytes
		if third := n.children[2]; third != nil && third.numBytes > 0 {
			copy(first.values[s.slotsOf(offset):], third.values[:s.slotsOf(third.numBytes)])
			n.children[2] = nil
			merged++
		}
		n.children[1] = nil
		mergeCount().Add(1)
		nodeGauge().Add(-int64(merged))
		logger.Debug("leaf merge", "num_bytes", n.numBytes, "children_merged", merged)
	}
	first.numBytes = n.numBytes
}

// rebalanceForChild0/rebalanceForChild1 mirror CFStorage.c's
// forChild0/forChild1 tables: given the total number of grandchildren,
// how many go to child 0 and child 1 (the remainder goes to child 2).
var (
	rebalanceForChild0 = [10]int{0, 1, 2, 3, 2, 3, 3, 3, 3, 3}
	rebalanceForChild1 = [10]int{0, 0, 0, 0, 2, 2, 3, 2, 3, 3}
)

// rebalanceInteriorChildren regathers n's grandchildren (after a
// recursive delete may have left some interior children with fewer
// than 2 children) and redistributes them across at most 3 children so
// every surviving child again has 2 or 3 children.
func rebalanceInteriorChildren[T any](n *node[T]) {
	var grandchildren [9]*node[T]
	total := 0
	for cCnt := 0; cCnt < 3; cCnt++ {
		child := n.children[cCnt]
		if child == nil {
			continue
		}
		for gCnt := 0; gCnt < 3; gCnt++ {
			if child.children[gCnt] != nil {
				grandchildren[total] = child.children[gCnt]
				total++
				child.children[gCnt] = nil
			}
		}
		child.numBytes = 0
	}
	rebalanceFanIn().Observe(int64(total))

	placed := 0
	for cCnt := 0; cCnt < 3; cCnt++ {
		var want int
		switch cCnt {
		case 0:
			want = rebalanceForChild0[total]
		case 1:
			want = rebalanceForChild1[total]
		default:
			want = total
		}
		if want > total-placed {
			want = total - placed
		}
		if want == 0 {
			n.children[cCnt] = nil
			continue
		}
		if n.children[cCnt] == nil {
			n.children[cCnt] = newInteriorNode[T]()
		}
		child := n.children[cCnt]
		for cnt := 0; cnt < want; cnt++ {
			child.numBytes += grandchildren[placed].numBytes
			child.children[cnt] = grandchildren[placed]
			placed++
		}
	}
}

func nodeCapacity[T any](n *node[T]) int {
	if n == nil {
		return 0
	}
	if n.isLeaf {
		return n.capacityBytes
	}
	return nodeCapacity(n.children[0]) + nodeCapacity(n.children[1]) + nodeCapacity(n.children[2])
}
