// Copyright 2016 Aleksandr Demakin. All rights reserved.

//go:build linux

package sync

import (
	"os"
	"runtime"
	"time"
	"unsafe"

	"github.com/nxgtw/interprocess/internal/common"
	"golang.org/x/sys/unix"
)

const (
	cFUTEX_WAIT = 0
	cFUTEX_WAKE = 1
)

// FutexWait checks, that the value at addr equals value, and sleeps until woken
// or the timeout expires. Negative timeout means infinite wait.
// It returns nil, if the value did not match, the caller was woken, or the sleep was interrupted.
// On timeout an error with ETIMEDOUT code is returned.
// The futex is not private, so it can be used by different processes, which map the same object.
func FutexWait(addr unsafe.Pointer, value uint32, timeout time.Duration) error {
	ts := common.TimeoutToTimeSpec(timeout)
	_, err := futex(addr, cFUTEX_WAIT, value, unsafe.Pointer(ts))
	runtime.KeepAlive(ts)
	if err == nil || common.SyscallErrHasCode(err, unix.EAGAIN) || common.IsInterruptedSyscallErr(err) {
		return nil
	}
	return err
}

// FutexWake wakes up to count waiters, sleeping on addr.
// Returns the number of woken waiters.
func FutexWake(addr unsafe.Pointer, count uint32) (int, error) {
	woken, err := futex(addr, cFUTEX_WAKE, count, nil)
	return int(woken), err
}

func futex(addr unsafe.Pointer, op int32, val uint32, ts unsafe.Pointer) (int32, error) {
	r1, _, err := unix.Syscall6(unix.SYS_FUTEX,
		uintptr(addr),
		uintptr(op),
		uintptr(val),
		uintptr(ts),
		0,
		0)
	if err != 0 {
		return 0, os.NewSyscallError("futex", err)
	}
	return int32(r1), nil
}

func isTimeoutErr(err error) bool {
	return common.IsTimeoutErr(err)
}
