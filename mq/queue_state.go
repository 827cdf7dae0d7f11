// Copyright 2016 Aleksandr Demakin. All rights reserved.

package mq

import (
	"unsafe"

	ipc "github.com/nxgtw/interprocess"
	"github.com/nxgtw/interprocess/internal/common"
	ipc_sync "github.com/nxgtw/interprocess/sync"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	queueHeaderSize = int(unsafe.Sizeof(queueHeader{}))
)

// queueHeader is placed at the beginning of the queue's segment, the heap follows it.
type queueHeader struct {
	mu       ipc_sync.InplaceMutex
	_        uint32
	notEmpty ipc_sync.InplaceCond
	notFull  ipc_sync.InplaceCond
	nextSeq  uint64
}

// queueState is a view of the queue's shared memory.
type queueState struct {
	hdr  *queueHeader
	heap *sharedHeap
}

func calcQueueSize(maxQueueSize, maxMsgSize int) int {
	heapSize := calcSharedHeapSize(maxQueueSize, maxMsgSize)
	if heapSize < 0 || heapSize > int(^uint32(0)>>1)-queueHeaderSize {
		return -1
	}
	return queueHeaderSize + heapSize
}

func newQueueState(raw unsafe.Pointer, maxQueueSize, maxMsgSize int) *queueState {
	hdr := (*queueHeader)(raw)
	hdr.mu.Init()
	hdr.notEmpty.Init()
	hdr.notFull.Init()
	hdr.nextSeq = 0
	return &queueState{
		hdr:  hdr,
		heap: newSharedHeap(unsafe.Add(raw, queueHeaderSize), maxQueueSize, maxMsgSize),
	}
}

func openQueueState(raw unsafe.Pointer, size int) (*queueState, error) {
	if size < queueHeaderSize+calcSharedHeapSize(0, 0) {
		return nil, errors.Errorf("queue segment is too small: %d", size)
	}
	st := &queueState{
		hdr:  (*queueHeader)(raw),
		heap: openSharedHeap(unsafe.Add(raw, queueHeaderSize)),
	}
	maxQueueSize, maxMsgSize := st.heap.maxSize(), st.heap.maxMsgSize()
	if maxQueueSize < 1 || maxMsgSize < 0 || calcQueueSize(maxQueueSize, maxMsgSize) != size {
		return nil, errors.Errorf("inconsistent queue layout: capacity %d, message size %d, segment size %d",
			maxQueueSize, maxMsgSize, size)
	}
	return st, nil
}

func (st *queueState) lock(d common.Deadline) (bool, error) {
	if d.IsInfinite() {
		return true, st.hdr.mu.Lock()
	}
	return st.hdr.mu.LockUntil(d)
}

// send puts a message into the queue. If wait is false, it does not wait for free space.
// Returns false, if the queue was full, and the deadline has expired.
func (st *queueState) send(data []byte, prio uint32, wait bool, d common.Deadline) (bool, error) {
	if ok, err := st.lock(d); err != nil || !ok {
		return false, err
	}
	for st.heap.full() {
		if !wait {
			return false, st.hdr.mu.Unlock()
		}
		ok, err := st.hdr.notFull.WaitUntil(&st.hdr.mu, d)
		if err != nil {
			return false, err
		}
		if !ok && st.heap.full() {
			return false, st.hdr.mu.Unlock()
		}
	}
	st.heap.pushMessage(message{prio: prio, seq: st.hdr.nextSeq, data: data})
	st.hdr.nextSeq++
	st.unlockAndSignal(&st.hdr.notEmpty)
	return true, nil
}

// receive takes the top message from the queue. If wait is false, it does not wait for a message.
// Returns false, if the queue was empty, and the deadline has expired.
func (st *queueState) receive(wait bool, d common.Deadline) (message, bool, error) {
	if ok, err := st.lock(d); err != nil || !ok {
		return message{}, false, err
	}
	for st.heap.Len() == 0 {
		if !wait {
			return message{}, false, st.hdr.mu.Unlock()
		}
		ok, err := st.hdr.notEmpty.WaitUntil(&st.hdr.mu, d)
		if err != nil {
			return message{}, false, err
		}
		if !ok && st.heap.Len() == 0 {
			return message{}, false, st.hdr.mu.Unlock()
		}
	}
	msg := st.heap.popMessage()
	st.unlockAndSignal(&st.hdr.notFull)
	return msg, true, nil
}

// unlockAndSignal finishes a successful operation. The queue has already been changed,
// so errors are logged, not returned.
func (st *queueState) unlockAndSignal(c *ipc_sync.InplaceCond) {
	if err := st.hdr.mu.Unlock(); err != nil {
		ipc.Logger().Warn("failed to unlock queue", zap.Error(err))
	}
	if err := c.Signal(); err != nil {
		ipc.Logger().Warn("failed to wake queue waiters", zap.Error(err))
	}
}
