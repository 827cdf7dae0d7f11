// Copyright 2015 Aleksandr Demakin. All rights reserved.

// Package mmf implements memory mapping of shared memory objects.
package mmf

import (
	"unsafe"
)

// Memory region access modes.
const (
	// MEM_READ_ONLY maps the memory for reading only.
	MEM_READ_ONLY = iota
	// MEM_READWRITE maps the memory for reading and writing. Changes are visible to other processes.
	MEM_READWRITE
)

// Mappable is a named object, which can return a handle,
// that can be used as a file descriptor for mmap.
type Mappable interface {
	Fd() uintptr
	Name() string
}

// MemoryRegion is a mmapped area of a memory object.
// The region must be closed explicitly, there is no finalizer. Pointers into
// the region's data become invalid after Close.
type MemoryRegion struct {
	*memoryRegion
}

// NewMemoryRegion creates a new shared memory region.
//
//	object - an object to mmap.
//	mode - access mode. see MEM_* constants
//	offset - offset in bytes from the beginning of the mmaped file, must be a multiple of the page size.
//	size - mapping size.
func NewMemoryRegion(object Mappable, mode int, offset int64, size int) (*MemoryRegion, error) {
	impl, err := newMemoryRegion(object, mode, offset, size)
	if err != nil {
		return nil, err
	}
	return &MemoryRegion{impl}, nil
}

// Pointer returns a pointer to the beginning of the mapped data.
func (region *MemoryRegion) Pointer() unsafe.Pointer {
	data := region.Data()
	if len(data) == 0 {
		return nil
	}
	return unsafe.Pointer(&data[0])
}
