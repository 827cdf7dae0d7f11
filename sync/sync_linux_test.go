// Copyright 2016 Aleksandr Demakin. All rights reserved.

//go:build linux

package sync

import (
	"sync/atomic"
	"testing"
	"time"
	"unsafe"

	ipc "github.com/nxgtw/interprocess"
	"github.com/nxgtw/interprocess/internal/common"
	"github.com/stretchr/testify/assert"
	"golang.org/x/sync/errgroup"
)

func TestInplaceMutex(t *testing.T) {
	a := assert.New(t)
	var state uint32
	m := NewInplaceMutex(unsafe.Pointer(&state))
	m.Init()
	counter := 0
	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			for j := 0; j < 1000; j++ {
				if err := m.Lock(); err != nil {
					return err
				}
				counter++
				if err := m.Unlock(); err != nil {
					return err
				}
			}
			return nil
		})
	}
	a.NoError(g.Wait())
	a.Equal(8000, counter)
}

func TestInplaceMutexTimeout(t *testing.T) {
	a := assert.New(t)
	var state uint32
	m := NewInplaceMutex(unsafe.Pointer(&state))
	m.Init()
	a.True(m.TryLock())
	a.False(m.TryLock())
	start := time.Now()
	ok, err := m.LockUntil(common.DeadlineAfter(50 * time.Millisecond))
	a.NoError(err)
	a.False(ok)
	a.True(time.Since(start) >= 50*time.Millisecond)
	a.NoError(m.Unlock())
	ok, err = m.LockUntil(common.DeadlineAfter(50 * time.Millisecond))
	a.NoError(err)
	a.True(ok)
	a.NoError(m.Unlock())
}

func TestInplaceCond(t *testing.T) {
	a := assert.New(t)
	var mstate uint32
	var cstate [2]uint32
	m := NewInplaceMutex(unsafe.Pointer(&mstate))
	m.Init()
	c := NewInplaceCond(unsafe.Pointer(&cstate[0]))
	c.Init()
	ready := false
	done := make(chan error, 1)
	go func() {
		if err := m.Lock(); err != nil {
			done <- err
			return
		}
		for !ready {
			if _, err := c.WaitUntil(m, common.NoDeadline()); err != nil {
				done <- err
				return
			}
		}
		done <- m.Unlock()
	}()
	time.Sleep(20 * time.Millisecond)
	a.NoError(m.Lock())
	ready = true
	a.NoError(m.Unlock())
	a.NoError(c.Signal())
	select {
	case err := <-done:
		a.NoError(err)
	case <-time.After(5 * time.Second):
		t.Fatal("waiter was not woken")
	}
}

func TestInplaceCondTimeout(t *testing.T) {
	a := assert.New(t)
	var mstate uint32
	var cstate [2]uint32
	m := NewInplaceMutex(unsafe.Pointer(&mstate))
	m.Init()
	c := NewInplaceCond(unsafe.Pointer(&cstate[0]))
	c.Init()
	a.NoError(m.Lock())
	start := time.Now()
	ok, err := c.WaitUntil(m, common.DeadlineAfter(30*time.Millisecond))
	a.NoError(err)
	a.False(ok)
	a.True(time.Since(start) >= 30*time.Millisecond)
	// the mutex is locked again.
	a.False(m.TryLock())
	a.NoError(m.Unlock())
	a.NoError(c.Broadcast())
}

func TestMutexExclusion(t *testing.T) {
	a := assert.New(t)
	name := testName("mutex")
	m, err := CreateMutex(name)
	if !a.NoError(err) {
		return
	}
	defer RemoveMutex(name)
	var inside, violations int32
	var g errgroup.Group
	for i := 0; i < 4; i++ {
		g.Go(func() error {
			mu, err := OpenMutex(name)
			if err != nil {
				return err
			}
			for j := 0; j < 100; j++ {
				if err := mu.Lock(); err != nil {
					return err
				}
				if atomic.AddInt32(&inside, 1) != 1 {
					atomic.AddInt32(&violations, 1)
				}
				atomic.AddInt32(&inside, -1)
				if err := mu.Unlock(); err != nil {
					return err
				}
			}
			return nil
		})
	}
	for i := 0; i < 4; i++ {
		g.Go(func() error {
			for j := 0; j < 100; j++ {
				if err := m.LockSharable(); err != nil {
					return err
				}
				if atomic.LoadInt32(&inside) != 0 {
					atomic.AddInt32(&violations, 1)
				}
				if err := m.UnlockSharable(); err != nil {
					return err
				}
			}
			return nil
		})
	}
	a.NoError(g.Wait())
	a.Equal(int32(0), violations)
}

func TestMutexSharableHolders(t *testing.T) {
	a := assert.New(t)
	name := testName("mutex")
	m, err := CreateMutex(name)
	if !a.NoError(err) {
		return
	}
	defer RemoveMutex(name)
	for i := 0; i < 3; i++ {
		a.NoError(m.LockSharable())
	}
	ok, err := m.TimedLock(30 * time.Millisecond)
	a.NoError(err)
	a.False(ok)
	// the timed out writer has withdrawn, new readers are admitted.
	ok, err = m.TryLockSharable()
	a.NoError(err)
	a.True(ok)
	for i := 0; i < 4; i++ {
		a.NoError(m.UnlockSharable())
	}
	ok, err = m.TimedLock(30 * time.Millisecond)
	a.NoError(err)
	a.True(ok)
	a.NoError(m.Unlock())
}

func TestMutexWriterPreference(t *testing.T) {
	a := assert.New(t)
	name := testName("mutex")
	m, err := CreateMutex(name)
	if !a.NoError(err) {
		return
	}
	defer RemoveMutex(name)
	a.NoError(m.LockSharable())
	locked := make(chan error, 1)
	go func() {
		locked <- m.Lock()
	}()
	// wait for the writer to become pending.
	for i := 0; i < 100; i++ {
		ok, err := m.TryLockSharable()
		a.NoError(err)
		if !ok {
			break
		}
		a.NoError(m.UnlockSharable())
		time.Sleep(5 * time.Millisecond)
	}
	ok, err := m.TimedLockSharable(20 * time.Millisecond)
	a.NoError(err)
	a.False(ok)
	a.NoError(m.UnlockSharable())
	select {
	case err := <-locked:
		a.NoError(err)
	case <-time.After(5 * time.Second):
		t.Fatal("writer was not woken")
	}
	ok, err = m.TryLockSharable()
	a.NoError(err)
	a.False(ok)
	a.NoError(m.Unlock())
	ok, err = m.TryLockSharable()
	a.NoError(err)
	a.True(ok)
	a.NoError(m.UnlockSharable())
}

func TestSemaphoreTimedWait(t *testing.T) {
	a := assert.New(t)
	name := testName("sem")
	s, err := CreateSemaphore(name, 0)
	if !a.NoError(err) {
		return
	}
	defer RemoveSemaphore(name)
	start := time.Now()
	ok, err := s.TimedWait(50 * time.Millisecond)
	a.NoError(err)
	a.False(ok)
	a.True(time.Since(start) >= 50*time.Millisecond)
	ok, err = s.TimedWait(0)
	a.NoError(err)
	a.False(ok)
	a.NoError(s.Post())
	ok, err = s.TimedWait(0)
	a.NoError(err)
	a.True(ok)
}

func TestSemaphoreWaiterWoken(t *testing.T) {
	a := assert.New(t)
	name := testName("sem")
	s, err := CreateSemaphore(name, 0)
	if !a.NoError(err) {
		return
	}
	defer RemoveSemaphore(name)
	var g errgroup.Group
	const waiters = 4
	for i := 0; i < waiters; i++ {
		g.Go(func() error {
			sem, err := OpenSemaphore(name)
			if err != nil {
				return err
			}
			return sem.Wait()
		})
	}
	time.Sleep(20 * time.Millisecond)
	for i := 0; i < waiters; i++ {
		a.NoError(s.Post())
	}
	done := make(chan error, 1)
	go func() { done <- g.Wait() }()
	select {
	case err := <-done:
		a.NoError(err)
	case <-time.After(5 * time.Second):
		t.Fatal("waiters were not woken")
	}
	value, err := s.Value()
	a.NoError(err)
	a.Equal(uint32(0), value)
}

func TestSemaphoreRemovedWhileWaiting(t *testing.T) {
	a := assert.New(t)
	name := testName("sem")
	s, err := CreateSemaphore(name, 0)
	if !a.NoError(err) {
		return
	}
	done := make(chan bool, 1)
	go func() {
		ok, _ := s.TimedWait(100 * time.Millisecond)
		done <- ok
	}()
	time.Sleep(20 * time.Millisecond)
	removed, err := RemoveSemaphore(name)
	a.NoError(err)
	a.True(removed)
	a.False(<-done)
	a.ErrorIs(s.Post(), ipc.ErrNotFound)
}
