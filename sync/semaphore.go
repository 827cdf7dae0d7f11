// Copyright 2016 Aleksandr Demakin. All rights reserved.

package sync

import (
	"time"
	"unsafe"

	ipc "github.com/nxgtw/interprocess"
	"github.com/nxgtw/interprocess/internal/common"
	"github.com/nxgtw/interprocess/internal/segment"
	"github.com/nxgtw/interprocess/metrics"
	"github.com/pkg/errors"
)

const semaphoreObject = "semaphore"

// NamedSemaphore is a counting semaphore, identified by its name.
type NamedSemaphore struct {
	name string
}

// CreateSemaphore creates a new semaphore with the given initial value.
// It fails, if an object with that name exists.
func CreateSemaphore(name string, initial uint32) (*NamedSemaphore, error) {
	return NewSemaphore(name, ipc.O_CREATE_ONLY, initial)
}

// OpenSemaphore opens an existing semaphore.
func OpenSemaphore(name string) (*NamedSemaphore, error) {
	return NewSemaphore(name, ipc.O_OPEN_ONLY, 0)
}

// OpenOrCreateSemaphore opens an existing semaphore, or creates a new one with the given initial value.
// If the semaphore exists, initial is ignored.
func OpenOrCreateSemaphore(name string, initial uint32) (*NamedSemaphore, error) {
	return NewSemaphore(name, ipc.O_OPEN_OR_CREATE, initial)
}

// NewSemaphore opens or creates a semaphore according to the mode.
// initial is used only, if the semaphore is created.
func NewSemaphore(name string, mode ipc.OpenMode, initial uint32) (*NamedSemaphore, error) {
	init := func(body unsafe.Pointer, size int) error {
		newSemaState(body).init(initial)
		return nil
	}
	seg, err := segment.OpenOrCreate(name, segment.KindSemaphore, mode, semaStateSize, init)
	metrics.Observe(semaphoreObject, mode.String(), err == nil, err)
	if err != nil {
		return nil, err
	}
	seg.Close()
	return &NamedSemaphore{name: name}, nil
}

// RemoveSemaphore removes the semaphore's name. Returns false, if there was no object with that name.
func RemoveSemaphore(name string) (bool, error) {
	removed, err := segment.Remove(name)
	metrics.Observe(semaphoreObject, "remove", err == nil, err)
	return removed, err
}

// Name returns the name of the semaphore.
func (s *NamedSemaphore) Name() string {
	return s.name
}

func (s *NamedSemaphore) do(op string, fn func(st *semaState) (bool, error)) (bool, error) {
	seg, err := segment.Open(s.name, segment.KindSemaphore)
	if err != nil {
		return false, err
	}
	defer seg.Close()
	ok, err := fn(newSemaState(seg.Body()))
	if err != nil {
		return false, ipc.Classify(op, s.name, err)
	}
	return ok, nil
}

// Post increments the counter, waking one waiter. It never blocks.
// If the counter has reached MaxSemaphoreValue, ErrResourceLimit is returned.
func (s *NamedSemaphore) Post() error {
	_, err := s.do("post", func(st *semaState) (bool, error) {
		ok, err := st.post()
		if err == nil && !ok {
			return false, ipc.NewError("post", s.name, ipc.ErrResourceLimit, errors.New("semaphore counter overflow"))
		}
		return ok, err
	})
	metrics.Observe(semaphoreObject, "post", err == nil, err)
	return err
}

// Wait decrements the counter, waiting for it to become positive as long as needed.
func (s *NamedSemaphore) Wait() error {
	start := time.Now()
	ok, err := s.do("wait", func(st *semaState) (bool, error) {
		return st.wait(common.NoDeadline())
	})
	metrics.ObserveWait(semaphoreObject, "wait", start, ok, err)
	return err
}

// TryWait decrements the counter, if it is positive.
func (s *NamedSemaphore) TryWait() (bool, error) {
	ok, err := s.do("try_wait", func(st *semaState) (bool, error) {
		return st.tryWait(), nil
	})
	metrics.Observe(semaphoreObject, "try_wait", ok, err)
	return ok, err
}

// TimedWait decrements the counter, waiting for it to become positive for not longer, than timeout.
// Non-positive timeout makes a single attempt.
func (s *NamedSemaphore) TimedWait(timeout time.Duration) (bool, error) {
	start := time.Now()
	d := common.DeadlineAfter(timeout)
	ok, err := s.do("timed_wait", func(st *semaState) (bool, error) {
		return st.wait(d)
	})
	metrics.ObserveWait(semaphoreObject, "timed_wait", start, ok, err)
	return ok, err
}

// Value returns a snapshot of the counter.
func (s *NamedSemaphore) Value() (uint32, error) {
	var value uint32
	_, err := s.do("value", func(st *semaState) (bool, error) {
		value = st.value()
		return true, nil
	})
	return value, err
}
