// Copyright 2016 Aleksandr Demakin. All rights reserved.

package sync

import (
	"time"
	"unsafe"

	ipc "github.com/nxgtw/interprocess"
	"github.com/nxgtw/interprocess/internal/common"
	"github.com/nxgtw/interprocess/internal/segment"
	"github.com/nxgtw/interprocess/metrics"
)

const mutexObject = "mutex"

// NamedMutex is a sharable mutex, identified by its name.
// It can be locked exclusively by one owner, or sharably by many owners at once.
// Once an exclusive owner is waiting for the mutex, new sharable owners wait too.
//
// NamedMutex does not track owners. Unlocking a mutex, that is not held by the caller
// in the same mode, is a caller's error. If the mutex is not locked in that mode at all,
// the unlock is ignored.
type NamedMutex struct {
	name string
}

// CreateMutex creates a new unlocked mutex. It fails, if an object with that name exists.
func CreateMutex(name string) (*NamedMutex, error) {
	return NewMutex(name, ipc.O_CREATE_ONLY)
}

// OpenMutex opens an existing mutex.
func OpenMutex(name string) (*NamedMutex, error) {
	return NewMutex(name, ipc.O_OPEN_ONLY)
}

// OpenOrCreateMutex opens an existing mutex, or creates a new unlocked one.
func OpenOrCreateMutex(name string) (*NamedMutex, error) {
	return NewMutex(name, ipc.O_OPEN_OR_CREATE)
}

// NewMutex opens or creates a mutex according to the mode. A new mutex is unlocked.
func NewMutex(name string, mode ipc.OpenMode) (*NamedMutex, error) {
	seg, err := segment.OpenOrCreate(name, segment.KindMutex, mode, sharableStateSize, initMutex(name))
	metrics.Observe(mutexObject, mode.String(), err == nil, err)
	if err != nil {
		return nil, err
	}
	seg.Close()
	return &NamedMutex{name: name}, nil
}

func initMutex(name string) segment.Initializer {
	return func(body unsafe.Pointer, size int) error {
		newSharableMutex(body, name).init()
		return nil
	}
}

// RemoveMutex removes the mutex's name. Current holders and waiters are not affected,
// but new opens fail. Returns false, if there was no object with that name.
func RemoveMutex(name string) (bool, error) {
	removed, err := segment.Remove(name)
	metrics.Observe(mutexObject, "remove", err == nil, err)
	return removed, err
}

// Name returns the name of the mutex.
func (m *NamedMutex) Name() string {
	return m.name
}

func (m *NamedMutex) do(op string, fn func(mu *sharableMutex) (bool, error)) (bool, error) {
	seg, err := segment.Open(m.name, segment.KindMutex)
	if err != nil {
		return false, err
	}
	defer seg.Close()
	ok, err := fn(newSharableMutex(seg.Body(), m.name))
	if err != nil {
		return false, ipc.Classify(op, m.name, err)
	}
	return ok, nil
}

func (m *NamedMutex) doWait(op string, fn func(mu *sharableMutex) (bool, error)) (bool, error) {
	start := time.Now()
	ok, err := m.do(op, fn)
	metrics.ObserveWait(mutexObject, op, start, ok, err)
	return ok, err
}

func (m *NamedMutex) doNoWait(op string, fn func(mu *sharableMutex) (bool, error)) (bool, error) {
	ok, err := m.do(op, fn)
	metrics.Observe(mutexObject, op, ok, err)
	return ok, err
}

// Lock locks the mutex exclusively, waiting as long as needed.
func (m *NamedMutex) Lock() error {
	_, err := m.doWait("lock", func(mu *sharableMutex) (bool, error) {
		return mu.lock(common.NoDeadline())
	})
	return err
}

// TryLock tries to lock the mutex exclusively without blocking.
func (m *NamedMutex) TryLock() (bool, error) {
	return m.doNoWait("try_lock", func(mu *sharableMutex) (bool, error) {
		return mu.tryLock(), nil
	})
}

// TimedLock tries to lock the mutex exclusively, waiting for not longer, than timeout.
// If it fails, the mutex is left as if the call has not been made.
func (m *NamedMutex) TimedLock(timeout time.Duration) (bool, error) {
	d := common.DeadlineAfter(timeout)
	return m.doWait("timed_lock", func(mu *sharableMutex) (bool, error) {
		return mu.lock(d)
	})
}

// Unlock releases the exclusive ownership.
func (m *NamedMutex) Unlock() error {
	_, err := m.doNoWait("unlock", func(mu *sharableMutex) (bool, error) {
		return true, mu.unlock()
	})
	return err
}

// LockSharable locks the mutex sharably, waiting as long as needed.
func (m *NamedMutex) LockSharable() error {
	_, err := m.doWait("lock_sharable", func(mu *sharableMutex) (bool, error) {
		return mu.lockSharable(common.NoDeadline())
	})
	return err
}

// TryLockSharable tries to lock the mutex sharably without blocking.
func (m *NamedMutex) TryLockSharable() (bool, error) {
	return m.doNoWait("try_lock_sharable", func(mu *sharableMutex) (bool, error) {
		return mu.tryLockSharable(), nil
	})
}

// TimedLockSharable tries to lock the mutex sharably, waiting for not longer, than timeout.
func (m *NamedMutex) TimedLockSharable(timeout time.Duration) (bool, error) {
	d := common.DeadlineAfter(timeout)
	return m.doWait("timed_lock_sharable", func(mu *sharableMutex) (bool, error) {
		return mu.lockSharable(d)
	})
}

// UnlockSharable releases one sharable ownership.
func (m *NamedMutex) UnlockSharable() error {
	_, err := m.doNoWait("unlock_sharable", func(mu *sharableMutex) (bool, error) {
		return true, mu.unlockSharable()
	})
	return err
}
