// Copyright 2016 Aleksandr Demakin. All rights reserved.

package array

import (
	"sync/atomic"
	"unsafe"

	"github.com/nxgtw/interprocess/internal/allocator"
)

const (
	mappedArrayHdrSize = unsafe.Sizeof(mappedArray{})
	slotAlignment      = 8
)

// mappedArray is the header of the array followed by its slots.
// Every slot starts at an 8-byte boundary.
type mappedArray struct {
	capacity       int32
	elemSize       int32
	size           int32
	_              int32
	dummyDataArray [0]uint64
}

func newMappedArray(pointer unsafe.Pointer) *mappedArray {
	return (*mappedArray)(pointer)
}

func (arr *mappedArray) init(capacity, elemSize int) {
	arr.capacity = int32(capacity)
	arr.elemSize = int32(elemSize)
	atomic.StoreInt32(&arr.size, 0)
}

func (arr *mappedArray) elemLen() int {
	return int(arr.elemSize)
}

func (arr *mappedArray) stride() int {
	return slotStride(int(arr.elemSize))
}

func (arr *mappedArray) cap() int {
	return int(arr.capacity)
}

func (arr *mappedArray) len() int {
	return int(atomic.LoadInt32(&arr.size))
}

func (arr *mappedArray) incLen() {
	atomic.AddInt32(&arr.size, 1)
}

func (arr *mappedArray) decLen() {
	atomic.AddInt32(&arr.size, -1)
}

func (arr *mappedArray) atPointer(slot int) unsafe.Pointer {
	return allocator.AdvancePointer(unsafe.Pointer(&arr.dummyDataArray), uintptr(slot*arr.stride()))
}

func (arr *mappedArray) at(slot int) []byte {
	return allocator.ByteSliceFromUnsafePointer(arr.atPointer(slot), arr.elemLen(), arr.elemLen())
}

func slotStride(elemSize int) int {
	return allocator.Align(elemSize, slotAlignment)
}
