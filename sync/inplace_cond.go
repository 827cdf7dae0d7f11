// Copyright 2016 Aleksandr Demakin. All rights reserved.

package sync

import (
	"sync/atomic"
	"unsafe"

	"github.com/nxgtw/interprocess/internal/common"
)

// InplaceCondSize is the size of InplaceCond in memory.
const InplaceCondSize = int(unsafe.Sizeof(InplaceCond{}))

// InplaceCond is a futex-based condition variable, which can be placed into a shared memory region.
// It must be used together with an InplaceMutex.
type InplaceCond struct {
	seq     uint32
	waiters uint32
}

// NewInplaceCond returns a condition variable placed at the given memory location.
func NewInplaceCond(ptr unsafe.Pointer) *InplaceCond {
	return (*InplaceCond)(ptr)
}

// Init writes initial values into cond's memory location.
func (c *InplaceCond) Init() {
	atomic.StoreUint32(&c.seq, 0)
	atomic.StoreUint32(&c.waiters, 0)
}

// WaitUntil atomically unlocks m and suspends the caller until the cond is signaled
// or the deadline expires. m must be locked by the caller. Returns false, if the deadline has expired.
// Spurious wakeups are possible.
// If no error is returned, m is locked again, even on timeout. On error m is not locked.
func (c *InplaceCond) WaitUntil(m *InplaceMutex, d common.Deadline) (bool, error) {
	atomic.AddUint32(&c.waiters, 1)
	seq := atomic.LoadUint32(&c.seq)
	if err := m.Unlock(); err != nil {
		atomic.AddUint32(&c.waiters, ^uint32(0))
		return false, err
	}
	ok, err := waitValue(&c.seq, seq, d)
	atomic.AddUint32(&c.waiters, ^uint32(0))
	if err != nil {
		return false, err
	}
	if err = m.Lock(); err != nil {
		return false, err
	}
	return ok, nil
}

// Signal wakes one waiter, if any.
func (c *InplaceCond) Signal() error {
	atomic.AddUint32(&c.seq, 1)
	return wakeCounted(&c.seq, &c.waiters, 1)
}

// Broadcast wakes all waiters.
func (c *InplaceCond) Broadcast() error {
	atomic.AddUint32(&c.seq, 1)
	return wakeCounted(&c.seq, &c.waiters, cFutexWakeAll)
}
