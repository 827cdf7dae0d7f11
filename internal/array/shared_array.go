// Copyright 2016 Aleksandr Demakin. All rights reserved.

package array

import (
	"math"
	"math/bits"
	"unsafe"

	"github.com/nxgtw/interprocess/internal/allocator"
)

const (
	indexEntrySize = unsafe.Sizeof(indexEntry{})
)

type indexEntry struct {
	len     int32
	slotIdx int32
}

type index struct {
	entries []indexEntry
	bitmap  []uint64
}

func bitmapSize(sz int) int {
	return (sz + 63) / 64
}

func indexSize(sz int) int {
	return allocator.Align(sz*int(indexEntrySize)+bitmapSize(sz)*8, slotAlignment)
}

func newIndex(raw unsafe.Pointer, sz int) index {
	bitmapSz := bitmapSize(sz)
	entries := allocator.SliceFromUnsafePointer[indexEntry](raw, sz)
	raw = allocator.AdvancePointer(raw, uintptr(sz)*indexEntrySize)
	return index{
		entries: entries,
		bitmap:  allocator.SliceFromUnsafePointer[uint64](raw, bitmapSz),
	}
}

func (idx *index) reserveFreeSlot(at int) {
	for i, b := range idx.bitmap {
		if b != math.MaxUint64 {
			bitIdx := bits.TrailingZeros64(^b)
			idx.entries[at].slotIdx = int32(i*64 + bitIdx)
			idx.entries[at].len = 0
			idx.bitmap[i] |= 1 << uint(bitIdx)
			return
		}
	}
	panic("no free slots")
}

func (idx *index) freeSlot(at int) {
	slotIdx := idx.entries[at].slotIdx
	bucketIdx, bitIdx := slotIdx/64, slotIdx%64
	idx.bitmap[bucketIdx] &^= 1 << uint(bitIdx)
}

func (idx *index) reset() {
	for i := range idx.bitmap {
		idx.bitmap[i] = 0
	}
}

// SharedArray is an array placed in the shared memory with fixed length and element size.
// Elements are added and removed at the back, and can be swapped. It never moves elements
// in memory, only their index entries.
// SharedArray is not synchronized, callers must guard it with a lock.
type SharedArray struct {
	data *mappedArray
	idx  index
}

// NewSharedArray initializes new shared array with size and element size.
// raw must be 8-byte aligned and point to at least CalcSharedArraySize(size, elemSize) bytes.
func NewSharedArray(raw unsafe.Pointer, size, elemSize int) *SharedArray {
	data := newMappedArray(raw)
	data.init(size, elemSize)
	arr := &SharedArray{
		data: data,
		idx:  newIndex(indexPointer(raw, size, elemSize), size),
	}
	arr.idx.reset()
	return arr
}

// OpenSharedArray opens existing shared array.
func OpenSharedArray(raw unsafe.Pointer) *SharedArray {
	data := newMappedArray(raw)
	return &SharedArray{
		data: data,
		idx:  newIndex(indexPointer(raw, data.cap(), data.elemLen()), data.cap()),
	}
}

func indexPointer(raw unsafe.Pointer, size, elemSize int) unsafe.Pointer {
	return allocator.AdvancePointer(raw, mappedArrayHdrSize+uintptr(size*slotStride(elemSize)))
}

// Cap returns array's capacity.
func (arr *SharedArray) Cap() int {
	return arr.data.cap()
}

// Len returns current length. It is safe to call without holding the lock.
func (arr *SharedArray) Len() int {
	return arr.data.len()
}

// ElemSize returns size of the element.
func (arr *SharedArray) ElemSize() int {
	return arr.data.elemLen()
}

// PushBack add new element to the end of the array, merging given datas.
// Returns number of bytes copied, less or equal, than the size of the element.
func (arr *SharedArray) PushBack(datas ...[]byte) int {
	curLen := arr.Len()
	if curLen >= arr.Cap() {
		panic("index out of range")
	}
	last := arr.entryAt(curLen)
	arr.idx.reserveFreeSlot(curLen)
	slData := arr.data.at(int(last.slotIdx))
	for _, data := range datas {
		copied := copy(slData[last.len:], data)
		last.len += int32(copied)
		if copied < len(data) {
			break
		}
	}
	arr.data.incLen()
	return int(last.len)
}

// At returns data at the position i.
func (arr *SharedArray) At(i int) []byte {
	if i < 0 || i >= arr.Len() {
		panic("index out of range")
	}
	entry := arr.entryAt(i)
	return arr.data.at(int(entry.slotIdx))[:int(entry.len):int(entry.len)]
}

// AtPointer returns pointer to the data at the position i.
func (arr *SharedArray) AtPointer(i int) unsafe.Pointer {
	if i < 0 || i >= arr.Len() {
		panic("index out of range")
	}
	return arr.data.atPointer(int(arr.entryAt(i).slotIdx))
}

// PopBack removes the last element of the array.
func (arr *SharedArray) PopBack() {
	curLen := arr.Len()
	if curLen == 0 {
		panic("index out of range")
	}
	arr.idx.freeSlot(curLen - 1)
	arr.data.decLen()
}

// Swap swaps two elements of the array.
func (arr *SharedArray) Swap(i, j int) {
	l := arr.Len()
	if i < 0 || j < 0 || i >= l || j >= l {
		panic("index out of range")
	}
	if i == j {
		return
	}
	arr.idx.entries[i], arr.idx.entries[j] = arr.idx.entries[j], arr.idx.entries[i]
}

func (arr *SharedArray) entryAt(i int) *indexEntry {
	return &arr.idx.entries[i]
}

// CalcSharedArraySize returns the size, needed to place shared array in memory.
// It returns -1 if the size does not fit into int32 arithmetic used by the array.
func CalcSharedArraySize(size, elemSize int) int {
	if size < 0 || elemSize < 0 || size > math.MaxInt32 || elemSize > math.MaxInt32-slotAlignment {
		return -1
	}
	stride := int64(slotStride(elemSize))
	total := int64(mappedArrayHdrSize) + // header
		int64(indexSize(size)) + // index
		int64(size)*stride // slots
	if total > math.MaxInt32 {
		return -1
	}
	return int(total)
}
