// Copyright 2015 Aleksandr Demakin. All rights reserved.

//go:build unix

package mmf

import (
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

type memoryRegion struct {
	data []byte
}

func newMemoryRegion(obj Mappable, mode int, offset int64, size int) (*memoryRegion, error) {
	prot, flags, err := memProtAndFlagsFromMode(mode)
	if err != nil {
		return nil, errors.Wrap(err, "memory region flags check failed")
	}
	if size <= 0 {
		return nil, errors.Errorf("invalid mapping size %d", size)
	}
	if offset < 0 || offset%int64(os.Getpagesize()) != 0 {
		return nil, errors.Errorf("invalid mapping offset %d", offset)
	}
	var stat unix.Stat_t
	if err = unix.Fstat(int(obj.Fd()), &stat); err != nil {
		return nil, errors.Wrap(err, "file size check failed")
	}
	// it is possible to mmap more bytes, than the size of the object,
	// but accessing them causes SIGBUS.
	if int64(size)+offset > stat.Size {
		return nil, errors.Errorf("invalid mapping length %d for object %q of size %d", size, obj.Name(), stat.Size)
	}
	data, err := unix.Mmap(int(obj.Fd()), offset, size, prot, flags)
	if err != nil {
		return nil, errors.Wrap(err, "mmap failed")
	}
	return &memoryRegion{data: data}, nil
}

// Close unmaps the region so that it cannot be longer used.
func (region *memoryRegion) Close() error {
	if region.data == nil {
		return nil
	}
	err := unix.Munmap(region.data)
	region.data = nil
	return errors.Wrap(err, "munmap failed")
}

// Data returns region's mapped data.
func (region *memoryRegion) Data() []byte {
	return region.data
}

// Size returns mapping size.
func (region *memoryRegion) Size() int {
	return len(region.data)
}

func memProtAndFlagsFromMode(mode int) (prot, flags int, err error) {
	switch mode {
	case MEM_READ_ONLY:
		prot = unix.PROT_READ
		flags = unix.MAP_SHARED
	case MEM_READWRITE:
		prot = unix.PROT_READ | unix.PROT_WRITE
		flags = unix.MAP_SHARED
	default:
		err = errors.Errorf("invalid memory region flags %d", mode)
	}
	return
}
