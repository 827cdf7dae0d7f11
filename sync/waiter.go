// Copyright 2016 Aleksandr Demakin. All rights reserved.

package sync

import (
	"math"
	"sync/atomic"
	"unsafe"

	"github.com/nxgtw/interprocess/internal/common"
)

const (
	cFutexWakeAll = math.MaxInt32
)

// waitValue sleeps, while *addr == value, until woken or the deadline expires.
// Returns false, if the deadline has expired. Spurious wakeups are possible,
// so callers must recheck their condition.
func waitValue(addr *uint32, value uint32, d common.Deadline) (bool, error) {
	if d.Expired() {
		return false, nil
	}
	if err := FutexWait(unsafe.Pointer(addr), value, d.Remaining()); err != nil {
		if isTimeoutErr(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// waitCounted is waitValue, which maintains the number of sleepers in waiters.
// The waiters counter must be incremented before the value is compared by the kernel,
// so that wakers, who change the value first and then check the waiters, never miss a sleeper.
func waitCounted(addr, waiters *uint32, value uint32, d common.Deadline) (bool, error) {
	atomic.AddUint32(waiters, 1)
	defer atomic.AddUint32(waiters, ^uint32(0))
	return waitValue(addr, value, d)
}

// wakeCounted wakes up to count sleepers on addr, if there are any.
func wakeCounted(addr, waiters *uint32, count uint32) error {
	if atomic.LoadUint32(waiters) == 0 {
		return nil
	}
	_, err := FutexWake(unsafe.Pointer(addr), count)
	return err
}
