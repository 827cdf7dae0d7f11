// Copyright 2015 Aleksandr Demakin. All rights reserved.

//go:build !unix

package mmf

import (
	ipc "github.com/nxgtw/interprocess"
)

type memoryRegion struct{}

func newMemoryRegion(obj Mappable, mode int, offset int64, size int) (*memoryRegion, error) {
	return nil, ipc.NewError("mmap", obj.Name(), ipc.ErrUnsupported, nil)
}

func (region *memoryRegion) Close() error {
	return nil
}

func (region *memoryRegion) Data() []byte {
	return nil
}

func (region *memoryRegion) Size() int {
	return 0
}
