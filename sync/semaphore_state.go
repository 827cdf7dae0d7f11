// Copyright 2016 Aleksandr Demakin. All rights reserved.

package sync

import (
	"math"
	"sync/atomic"
	"unsafe"

	"github.com/nxgtw/interprocess/internal/common"
)

const (
	semaStateSize = int(unsafe.Sizeof(semaState{}))
	// MaxSemaphoreValue is the max value of a semaphore counter.
	MaxSemaphoreValue = math.MaxUint32
)

// semaState is a counting semaphore in shared memory.
// The counter is used as a futex, waiters counts sleepers on it.
type semaState struct {
	count   uint32
	waiters uint32
}

func newSemaState(ptr unsafe.Pointer) *semaState {
	return (*semaState)(ptr)
}

func (s *semaState) init(initial uint32) {
	atomic.StoreUint32(&s.waiters, 0)
	atomic.StoreUint32(&s.count, initial)
}

func (s *semaState) value() uint32 {
	return atomic.LoadUint32(&s.count)
}

// post increments the counter and wakes one waiter.
// Returns false, if the counter would overflow.
func (s *semaState) post() (bool, error) {
	for {
		old := atomic.LoadUint32(&s.count)
		if old == MaxSemaphoreValue {
			return false, nil
		}
		if atomic.CompareAndSwapUint32(&s.count, old, old+1) {
			break
		}
	}
	return true, wakeCounted(&s.count, &s.waiters, 1)
}

func (s *semaState) tryWait() bool {
	for {
		old := atomic.LoadUint32(&s.count)
		if old == 0 {
			return false
		}
		if atomic.CompareAndSwapUint32(&s.count, old, old-1) {
			return true
		}
	}
}

func (s *semaState) wait(d common.Deadline) (bool, error) {
	for {
		if s.tryWait() {
			return true, nil
		}
		ok, err := waitCounted(&s.count, &s.waiters, 0, d)
		if err != nil {
			return false, err
		}
		if !ok {
			return s.tryWait(), nil
		}
	}
}
