package vfs

import (
	"github.com/google/btree"
)

// freeBlock is one free extent of the data file.
type freeBlock struct {
	location uint32
	length   int32
}

func (b *freeBlock) end() uint32 {
	return b.location + uint32(b.length)
}

// freeList tracks the free extents of the data file in two ordered indexes
// over the same set of blocks: by location (unique) for neighbor merging,
// and by (length, location) for best-fit allocation. Every mutation keeps
// the two indexes in agreement.
//
// Adjacent free extents are merged on insert, so the list never holds a
// free/free boundary.
type freeList struct {
	byLocation *btree.BTreeG[*freeBlock]
	byLength   *btree.BTreeG[*freeBlock]
}

const freeTreeDegree = 16

func newFreeList() *freeList {
	return &freeList{
		byLocation: btree.NewG(freeTreeDegree, func(a, b *freeBlock) bool {
			return a.location < b.location
		}),
		byLength: btree.NewG(freeTreeDegree, func(a, b *freeBlock) bool {
			if a.length != b.length {
				return a.length < b.length
			}
			return a.location < b.location
		}),
	}
}

// insert places a block into both indexes. The block must not already be
// present and must not be adjacent to an existing block; use add for the
// general case.
func (f *freeList) insert(b *freeBlock) {
	f.byLocation.ReplaceOrInsert(b)
	f.byLength.ReplaceOrInsert(b)
}

// remove deletes a block from both indexes.
func (f *freeList) remove(b *freeBlock) {
	f.byLocation.Delete(b)
	f.byLength.Delete(b)
}

// add inserts the extent [location, location+length) into the free list,
// incrementally merging with the immediately previous and/or next free
// extent when they are exactly adjacent. Four cases: both neighbors merge,
// only the previous merges, only the next merges, or neither.
func (f *freeList) add(location uint32, length int32) {
	if length <= 0 {
		return
	}

	var prev, next *freeBlock
	pivot := &freeBlock{location: location}
	f.byLocation.AscendGreaterOrEqual(pivot, func(b *freeBlock) bool {
		next = b
		return false
	})
	f.byLocation.DescendLessOrEqual(pivot, func(b *freeBlock) bool {
		if b.location < location {
			prev = b
			return false
		}
		return true
	})

	mergePrev := prev != nil && prev.end() == location
	mergeNext := next != nil && location+uint32(length) == next.location

	switch {
	case mergePrev && mergeNext:
		// Previous block keeps its location and absorbs both the new
		// extent and the next block, which goes away completely. Only
		// the length index needs updating for the survivor.
		f.byLength.Delete(prev)
		f.remove(next)
		prev.length += length + next.length
		f.byLength.ReplaceOrInsert(prev)

	case mergePrev:
		// Previous block keeps its location, only its length changes.
		f.byLength.Delete(prev)
		prev.length += length
		f.byLength.ReplaceOrInsert(prev)

	case mergeNext:
		// Next block changes both location and length, so both indexes
		// must update.
		f.remove(next)
		next.location = location
		next.length += length
		f.insert(next)

	default:
		f.insert(&freeBlock{location: location, length: length})
	}
}

// use consumes the leading n bytes of a free block. If n covers the whole
// block it is deleted; otherwise the block's location advances and its
// length shrinks, keeping both indexes consistent.
func (f *freeList) use(b *freeBlock, n int32) {
	f.remove(b)
	if b.length == n {
		return
	}
	b.location += uint32(n)
	b.length -= n
	f.add(b.location, b.length)
}

// findAtLeast returns a free block with length >= n, or nil. Among blocks
// of equal length the lowest location wins; that tie-break is arbitrary but
// deterministic.
func (f *freeList) findAtLeast(n int32) *freeBlock {
	var found *freeBlock
	f.byLength.AscendGreaterOrEqual(&freeBlock{length: n}, func(b *freeBlock) bool {
		found = b
		return false
	})
	return found
}

// nextAfter returns the free block with the lowest location strictly
// greater than loc, or nil.
func (f *freeList) nextAfter(loc uint32) *freeBlock {
	var found *freeBlock
	f.byLocation.AscendGreaterOrEqual(&freeBlock{location: loc + 1}, func(b *freeBlock) bool {
		found = b
		return false
	})
	return found
}

// checkAvailable reports whether any free block can hold n bytes.
func (f *freeList) checkAvailable(n int32) bool {
	return f.findAtLeast(n) != nil
}

// ascendLocation visits every free block in location order.
func (f *freeList) ascendLocation(fn func(*freeBlock) bool) {
	f.byLocation.Ascend(fn)
}

// lenLocation and lenLength report the sizes of the two indexes. They agree
// unless the list is corrupt.
func (f *freeList) lenLocation() int { return f.byLocation.Len() }
func (f *freeList) lenLength() int   { return f.byLength.Len() }

// clear drops every block from both indexes.
func (f *freeList) clear() {
	f.byLocation.Clear(false)
	f.byLength.Clear(false)
}
