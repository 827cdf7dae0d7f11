// Copyright 2016 Aleksandr Demakin. All rights reserved.

package sync

import (
	"testing"

	"github.com/google/uuid"
	ipc "github.com/nxgtw/interprocess"
	"github.com/nxgtw/interprocess/internal/segment"
	"github.com/nxgtw/interprocess/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func testName(prefix string) string {
	return "/" + prefix + "-" + uuid.NewString()
}

func TestMutexLifecycle(t *testing.T) {
	a := assert.New(t)
	name := testName("mutex")
	_, err := OpenMutex(name)
	a.ErrorIs(err, ipc.ErrNotFound)
	m, err := CreateMutex(name)
	if !a.NoError(err) {
		return
	}
	defer RemoveMutex(name)
	a.Equal(name, m.Name())
	_, err = CreateMutex(name)
	a.ErrorIs(err, ipc.ErrAlreadyExists)
	_, err = OpenMutex(name)
	a.NoError(err)
	_, err = OpenOrCreateMutex(name)
	a.NoError(err)
	removed, err := RemoveMutex(name)
	a.NoError(err)
	a.True(removed)
	removed, err = RemoveMutex(name)
	a.NoError(err)
	a.False(removed)
	_, err = m.TryLock()
	a.ErrorIs(err, ipc.ErrNotFound)
}

func TestMutexInvalidName(t *testing.T) {
	a := assert.New(t)
	_, err := CreateMutex("a/b")
	a.ErrorIs(err, ipc.ErrInvalidName)
	_, err = OpenOrCreateSemaphore("", 1)
	a.ErrorIs(err, ipc.ErrInvalidName)
}

func TestKindMismatch(t *testing.T) {
	a := assert.New(t)
	name := testName("kind")
	seg, err := segment.Create(name, segment.KindQueue, 64, nil)
	if !a.NoError(err) {
		return
	}
	seg.Close()
	defer segment.Remove(name)
	_, err = OpenMutex(name)
	a.ErrorIs(err, ipc.ErrInvalidObject)
	_, err = OpenSemaphore(name)
	a.ErrorIs(err, ipc.ErrInvalidObject)
	_, err = OpenOrCreateMutex(name)
	a.ErrorIs(err, ipc.ErrInvalidObject)
}

func TestMutexTryLock(t *testing.T) {
	a := assert.New(t)
	name := testName("mutex")
	m, err := CreateMutex(name)
	if !a.NoError(err) {
		return
	}
	defer RemoveMutex(name)
	ok, err := m.TryLock()
	a.NoError(err)
	a.True(ok)
	ok, err = m.TryLock()
	a.NoError(err)
	a.False(ok)
	ok, err = m.TryLockSharable()
	a.NoError(err)
	a.False(ok)
	// another accessor sees the same state.
	other, err := OpenMutex(name)
	if !a.NoError(err) {
		return
	}
	ok, err = other.TryLock()
	a.NoError(err)
	a.False(ok)
	a.NoError(m.Unlock())
	ok, err = other.TryLockSharable()
	a.NoError(err)
	a.True(ok)
	ok, err = m.TryLockSharable()
	a.NoError(err)
	a.True(ok)
	ok, err = m.TryLock()
	a.NoError(err)
	a.False(ok)
	a.NoError(m.UnlockSharable())
	a.NoError(other.UnlockSharable())
	ok, err = m.TryLock()
	a.NoError(err)
	a.True(ok)
	a.NoError(m.Unlock())
}

func TestMutexUnlockOfUnlocked(t *testing.T) {
	a := assert.New(t)
	core, logs := observer.New(zap.WarnLevel)
	ipc.SetLogger(zap.New(core))
	defer ipc.SetLogger(nil)
	name := testName("mutex")
	m, err := CreateMutex(name)
	if !a.NoError(err) {
		return
	}
	defer RemoveMutex(name)
	a.NoError(m.Unlock())
	a.NoError(m.UnlockSharable())
	a.Equal(2, logs.Len())
	// the state is not corrupted.
	ok, err := m.TryLock()
	a.NoError(err)
	a.True(ok)
	// sharable unlock does not release an exclusive lock.
	a.NoError(m.UnlockSharable())
	ok, err = m.TryLockSharable()
	a.NoError(err)
	a.False(ok)
	a.NoError(m.Unlock())
}

func TestSemaphoreLifecycle(t *testing.T) {
	a := assert.New(t)
	name := testName("sem")
	_, err := OpenSemaphore(name)
	a.ErrorIs(err, ipc.ErrNotFound)
	s, err := CreateSemaphore(name, 2)
	if !a.NoError(err) {
		return
	}
	defer RemoveSemaphore(name)
	_, err = CreateSemaphore(name, 5)
	a.ErrorIs(err, ipc.ErrAlreadyExists)
	s2, err := OpenOrCreateSemaphore(name, 5)
	if !a.NoError(err) {
		return
	}
	value, err := s2.Value()
	a.NoError(err)
	a.Equal(uint32(2), value)
	a.Equal(name, s.Name())
}

func TestSemaphoreTryWait(t *testing.T) {
	a := assert.New(t)
	name := testName("sem")
	s, err := CreateSemaphore(name, 2)
	if !a.NoError(err) {
		return
	}
	defer RemoveSemaphore(name)
	for i := 0; i < 2; i++ {
		ok, err := s.TryWait()
		a.NoError(err)
		a.True(ok)
	}
	ok, err := s.TryWait()
	a.NoError(err)
	a.False(ok)
	a.NoError(s.Post())
	value, err := s.Value()
	a.NoError(err)
	a.Equal(uint32(1), value)
}

func TestSemaphoreOverflow(t *testing.T) {
	a := assert.New(t)
	name := testName("sem")
	s, err := CreateSemaphore(name, MaxSemaphoreValue)
	if !a.NoError(err) {
		return
	}
	defer RemoveSemaphore(name)
	a.ErrorIs(s.Post(), ipc.ErrResourceLimit)
	value, err := s.Value()
	a.NoError(err)
	a.Equal(uint32(MaxSemaphoreValue), value)
}

func operationCount(t *testing.T, object, op, result string) float64 {
	reg := prometheus.NewRegistry()
	require.NoError(t, metrics.Register(reg))
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "interprocess_operations_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := make(map[string]string)
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["object"] == object && labels["op"] == op && labels["result"] == result {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestRemoveMetrics(t *testing.T) {
	a := assert.New(t)
	mutexName, semName := testName("mutex"), testName("sema")
	_, err := CreateMutex(mutexName)
	require.NoError(t, err)
	_, err = NewSemaphore(semName, ipc.O_CREATE_ONLY, 1)
	require.NoError(t, err)

	before := operationCount(t, mutexObject, "remove", metrics.ResultOK)
	removed, err := RemoveMutex(mutexName)
	a.NoError(err)
	a.True(removed)
	removed, err = RemoveMutex(mutexName)
	a.NoError(err)
	a.False(removed)
	a.Equal(before+2, operationCount(t, mutexObject, "remove", metrics.ResultOK))

	before = operationCount(t, semaphoreObject, "remove", metrics.ResultOK)
	removed, err = RemoveSemaphore(semName)
	a.NoError(err)
	a.True(removed)
	a.Equal(before+1, operationCount(t, semaphoreObject, "remove", metrics.ResultOK))
	before = operationCount(t, semaphoreObject, "remove", metrics.ResultError)
	_, err = RemoveSemaphore("bad/name")
	a.ErrorIs(err, ipc.ErrInvalidName)
	a.Equal(before+1, operationCount(t, semaphoreObject, "remove", metrics.ResultError))
}
