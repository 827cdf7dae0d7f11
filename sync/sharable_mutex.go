// Copyright 2016 Aleksandr Demakin. All rights reserved.

package sync

import (
	"sync/atomic"
	"unsafe"

	ipc "github.com/nxgtw/interprocess"
	"github.com/nxgtw/interprocess/internal/common"
	"go.uber.org/zap"
)

const (
	sharableStateSize = int(unsafe.Sizeof(sharableState{}))

	sharableWriterBit  = uint32(1) << 31
	sharableReaderMask = sharableWriterBit - 1
	// MaxSharableHolders is the max number of simultaneous sharable owners.
	MaxSharableHolders = int(sharableReaderMask)
)

// sharableState is a shared rwmutex state with the following bits distribution:
//
//	|   31   |30..........................0|
//	|--------|-----------------------------|
//	| writer |           readers           |
//
// When the writer bit is set, new readers wait. When the writer bit is set and
// there are no readers, the writer owns the mutex.
// The state word itself is used as a futex, waiters counts sleepers on it.
type sharableState struct {
	state   uint32
	waiters uint32
}

// sharableMutex is a writer-preferring rwmutex operating on a sharableState.
type sharableMutex struct {
	s    *sharableState
	name string
}

func newSharableMutex(ptr unsafe.Pointer, name string) *sharableMutex {
	return &sharableMutex{s: (*sharableState)(ptr), name: name}
}

func (m *sharableMutex) init() {
	atomic.StoreUint32(&m.s.state, 0)
	atomic.StoreUint32(&m.s.waiters, 0)
}

func (m *sharableMutex) wait(value uint32, d common.Deadline) (bool, error) {
	return waitCounted(&m.s.state, &m.s.waiters, value, d)
}

func (m *sharableMutex) wakeAll() error {
	return wakeCounted(&m.s.state, &m.s.waiters, cFutexWakeAll)
}

func (m *sharableMutex) tryLock() bool {
	return atomic.CompareAndSwapUint32(&m.s.state, 0, sharableWriterBit)
}

func (m *sharableMutex) lock(d common.Deadline) (bool, error) {
	// become the only writer, that has entered the mutex.
	for {
		old := atomic.LoadUint32(&m.s.state)
		if old&sharableWriterBit == 0 {
			if atomic.CompareAndSwapUint32(&m.s.state, old, old|sharableWriterBit) {
				break
			}
			continue
		}
		if ok, err := m.wait(old, d); err != nil || !ok {
			return false, err
		}
	}
	// wait for the readers to leave.
	for {
		old := atomic.LoadUint32(&m.s.state)
		if old&sharableReaderMask == 0 {
			return true, nil
		}
		ok, err := m.wait(old, d)
		if err == nil && ok {
			continue
		}
		if err == nil && atomic.LoadUint32(&m.s.state)&sharableReaderMask == 0 {
			return true, nil
		}
		m.leaveWriter()
		return false, err
	}
}

// leaveWriter clears the writer bit of a writer, which failed to acquire the mutex.
// Readers, blocked by it, are woken.
func (m *sharableMutex) leaveWriter() {
	atomic.AndUint32(&m.s.state, ^sharableWriterBit)
	if err := m.wakeAll(); err != nil {
		ipc.Logger().Warn("failed to wake mutex waiters", zap.String("name", m.name), zap.Error(err))
	}
}

func (m *sharableMutex) unlock() error {
	if !atomic.CompareAndSwapUint32(&m.s.state, sharableWriterBit, 0) {
		ipc.Logger().Warn("unlock of a mutex, that is not locked exclusively",
			zap.String("name", m.name), zap.Uint32("state", atomic.LoadUint32(&m.s.state)))
		return nil
	}
	return m.wakeAll()
}

func (m *sharableMutex) tryLockSharable() bool {
	for {
		old := atomic.LoadUint32(&m.s.state)
		if old&sharableWriterBit != 0 || old&sharableReaderMask == sharableReaderMask {
			return false
		}
		if atomic.CompareAndSwapUint32(&m.s.state, old, old+1) {
			return true
		}
	}
}

func (m *sharableMutex) lockSharable(d common.Deadline) (bool, error) {
	for {
		old := atomic.LoadUint32(&m.s.state)
		if old&sharableWriterBit == 0 && old&sharableReaderMask != sharableReaderMask {
			if atomic.CompareAndSwapUint32(&m.s.state, old, old+1) {
				return true, nil
			}
			continue
		}
		if ok, err := m.wait(old, d); err != nil || !ok {
			return false, err
		}
	}
}

func (m *sharableMutex) unlockSharable() error {
	for {
		old := atomic.LoadUint32(&m.s.state)
		readers := old & sharableReaderMask
		if readers == 0 {
			ipc.Logger().Warn("unlock of a mutex, that is not locked sharably",
				zap.String("name", m.name), zap.Uint32("state", old))
			return nil
		}
		if atomic.CompareAndSwapUint32(&m.s.state, old, old-1) {
			// a pending writer waits for the last reader, readers wait for a free slot.
			if readers == 1 || readers == sharableReaderMask {
				return m.wakeAll()
			}
			return nil
		}
	}
}
