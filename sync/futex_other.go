// Copyright 2016 Aleksandr Demakin. All rights reserved.

//go:build !linux

package sync

import (
	"time"
	"unsafe"

	ipc "github.com/nxgtw/interprocess"
)

// FutexWait is not supported on this platform.
func FutexWait(addr unsafe.Pointer, value uint32, timeout time.Duration) error {
	return ipc.ErrUnsupported
}

// FutexWake is not supported on this platform.
func FutexWake(addr unsafe.Pointer, count uint32) (int, error) {
	return 0, ipc.ErrUnsupported
}

func isTimeoutErr(err error) bool {
	return false
}
