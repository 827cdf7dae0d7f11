// Copyright 2016 Aleksandr Demakin. All rights reserved.

package sync

import (
	"runtime"
	"sync/atomic"
	"unsafe"

	"github.com/nxgtw/interprocess/internal/common"
)

const (
	// InplaceMutexSize is the size of InplaceMutex in memory.
	InplaceMutexSize = int(unsafe.Sizeof(InplaceMutex(0)))

	cInplaceSpinCount              = 100
	cInplaceMutexUnlocked          = uint32(0)
	cInplaceMutexLockedNoWaiters   = uint32(1)
	cInplaceMutexLockedHaveWaiters = uint32(2)
)

// InplaceMutex is a futex-based mutex, which can be placed into a shared memory region.
// See "Futexes Are Tricky" by Ulrich Drepper, mutex #2.
type InplaceMutex uint32

// NewInplaceMutex returns a mutex placed at the given memory location.
func NewInplaceMutex(ptr unsafe.Pointer) *InplaceMutex {
	return (*InplaceMutex)(ptr)
}

// Init writes initial value into mutex's memory location.
func (im *InplaceMutex) Init() {
	atomic.StoreUint32(im.addr(), cInplaceMutexUnlocked)
}

// Lock locks the mutex, waiting as long as needed.
func (im *InplaceMutex) Lock() error {
	_, err := im.LockUntil(common.NoDeadline())
	return err
}

// TryLock tries to lock the mutex without blocking.
func (im *InplaceMutex) TryLock() bool {
	return atomic.CompareAndSwapUint32(im.addr(), cInplaceMutexUnlocked, cInplaceMutexLockedNoWaiters)
}

// LockUntil tries to lock the mutex until the deadline expires.
// Returns false, if the deadline has expired.
func (im *InplaceMutex) LockUntil(d common.Deadline) (bool, error) {
	addr := im.addr()
	for i := 0; i < cInplaceSpinCount; i++ {
		if atomic.CompareAndSwapUint32(addr, cInplaceMutexUnlocked, cInplaceMutexLockedNoWaiters) {
			return true, nil
		}
		runtime.Gosched()
	}
	old := atomic.LoadUint32(addr)
	if old != cInplaceMutexLockedHaveWaiters {
		old = atomic.SwapUint32(addr, cInplaceMutexLockedHaveWaiters)
	}
	for old != cInplaceMutexUnlocked {
		ok, err := waitValue(addr, cInplaceMutexLockedHaveWaiters, d)
		if err != nil || !ok {
			return false, err
		}
		old = atomic.SwapUint32(addr, cInplaceMutexLockedHaveWaiters)
	}
	return true, nil
}

// Unlock releases the mutex. Unlock of an unlocked mutex is ignored.
func (im *InplaceMutex) Unlock() error {
	if atomic.SwapUint32(im.addr(), cInplaceMutexUnlocked) != cInplaceMutexLockedHaveWaiters {
		return nil
	}
	_, err := FutexWake(unsafe.Pointer(im), 1)
	return err
}

func (im *InplaceMutex) addr() *uint32 {
	return (*uint32)(unsafe.Pointer(im))
}
