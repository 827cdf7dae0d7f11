// Copyright 2015 Aleksandr Demakin. All rights reserved.

package shm

import (
	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v3/disk"
)

// FreeSpace returns the number of bytes available on the shared memory filesystem.
func FreeSpace() (uint64, error) {
	dir, err := Dir()
	if err != nil {
		return 0, err
	}
	usage, err := disk.Usage(dir)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to get usage of %q", dir)
	}
	return usage.Free, nil
}

// HasSpaceFor returns true, if an object of the given size fits into the shared memory filesystem.
func HasSpaceFor(size int64) (bool, error) {
	free, err := FreeSpace()
	if err != nil {
		return false, err
	}
	return size <= 0 || uint64(size) <= free, nil
}
