// Copyright 2015 Aleksandr Demakin. All rights reserved.

// Package allocator contains helpers for placing plain objects into raw memory,
// like memory mapped regions.
package allocator

import (
	"unsafe"
)

// ByteSliceFromUnsafePointer returns a slice of bytes with given length and capacity.
// Memory pointed by the unsafe.Pointer is used for the slice.
func ByteSliceFromUnsafePointer(memory unsafe.Pointer, length, capacity int) []byte {
	return unsafe.Slice((*byte)(memory), capacity)[:length]
}

// SliceFromUnsafePointer returns a slice of T of the given length.
// Memory pointed by the unsafe.Pointer is used for the slice.
// T must not contain any references.
func SliceFromUnsafePointer[T any](memory unsafe.Pointer, length int) []T {
	return unsafe.Slice((*T)(memory), length)
}

// AdvancePointer adds shift value to 'p' pointer.
func AdvancePointer(p unsafe.Pointer, shift uintptr) unsafe.Pointer {
	return unsafe.Add(p, shift)
}

// Align rounds size up to the nearest multiple of alignment, which must be a power of two.
func Align(size, alignment int) int {
	return (size + alignment - 1) &^ (alignment - 1)
}
