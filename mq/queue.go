// Copyright 2016 Aleksandr Demakin. All rights reserved.

package mq

import (
	"time"
	"unsafe"

	ipc "github.com/nxgtw/interprocess"
	"github.com/nxgtw/interprocess/internal/common"
	"github.com/nxgtw/interprocess/internal/segment"
	"github.com/nxgtw/interprocess/metrics"
	"github.com/pkg/errors"
)

const queueObject = "queue"

// Queue is a named priority message queue.
type Queue struct {
	name string
}

// CreateOnly creates a new queue. It fails with ErrAlreadyExists, if an object with that name exists.
//
//	maxNumMsg - queue capacity, must be positive.
//	maxMsgSize - max message size, can be zero.
func CreateOnly(name string, maxNumMsg, maxMsgSize int) (*Queue, error) {
	return New(name, ipc.O_CREATE_ONLY, maxNumMsg, maxMsgSize)
}

// OpenOnly opens an existing queue. It fails with ErrNotFound, if the queue does not exist.
func OpenOnly(name string) (*Queue, error) {
	return New(name, ipc.O_OPEN_ONLY, 0, 0)
}

// OpenOrCreate opens an existing queue, or creates a new one.
// If the queue exists, maxNumMsg and maxMsgSize are not checked against its attributes.
func OpenOrCreate(name string, maxNumMsg, maxMsgSize int) (*Queue, error) {
	return New(name, ipc.O_OPEN_OR_CREATE, maxNumMsg, maxMsgSize)
}

// New opens or creates a queue according to the mode.
// maxNumMsg and maxMsgSize are used only, if the queue is created.
func New(name string, mode ipc.OpenMode, maxNumMsg, maxMsgSize int) (*Queue, error) {
	seg, err := openQueueSegment(name, mode, maxNumMsg, maxMsgSize)
	metrics.Observe(queueObject, mode.String(), err == nil, err)
	if err != nil {
		return nil, err
	}
	seg.Close()
	return &Queue{name: name}, nil
}

func openQueueSegment(name string, mode ipc.OpenMode, maxNumMsg, maxMsgSize int) (*segment.Segment, error) {
	if mode == ipc.O_OPEN_ONLY {
		return segment.OpenOrCreate(name, segment.KindQueue, mode, 0, nil)
	}
	size, err := queueSegmentSize(name, maxNumMsg, maxMsgSize)
	if err != nil {
		if mode != ipc.O_OPEN_OR_CREATE {
			return nil, err
		}
		// attributes of an existing queue are not checked, so it can still be opened.
		seg, openErr := segment.Open(name, segment.KindQueue)
		if errors.Is(openErr, ipc.ErrNotFound) {
			return nil, err
		}
		return seg, openErr
	}
	init := func(body unsafe.Pointer, bodySize int) error {
		newQueueState(body, maxNumMsg, maxMsgSize)
		return nil
	}
	return segment.OpenOrCreate(name, segment.KindQueue, mode, size, init)
}

// queueSegmentSize validates attributes of a new queue and returns the size of its segment.
func queueSegmentSize(name string, maxNumMsg, maxMsgSize int) (int, error) {
	if maxNumMsg < 1 || maxMsgSize < 0 {
		return 0, ipc.NewError("create", name, ipc.ErrInvalidArgument,
			errors.Errorf("invalid queue attributes: capacity %d, message size %d", maxNumMsg, maxMsgSize))
	}
	size := calcQueueSize(maxNumMsg, maxMsgSize)
	if size < 0 {
		return 0, ipc.NewError("create", name, ipc.ErrResourceLimit,
			errors.Errorf("queue of %d messages of %d bytes is too big", maxNumMsg, maxMsgSize))
	}
	return size, nil
}

// Remove removes the queue's name. Messages are destroyed, when no operation uses the queue.
// Returns false, if there was no object with that name.
func Remove(name string) (bool, error) {
	removed, err := segment.Remove(name)
	metrics.Observe(queueObject, "remove", err == nil, err)
	return removed, err
}

// Name returns the name of the queue.
func (q *Queue) Name() string {
	return q.name
}

func (q *Queue) do(op string, fn func(st *queueState) error) error {
	seg, err := segment.Open(q.name, segment.KindQueue)
	if err != nil {
		return err
	}
	defer seg.Close()
	st, err := openQueueState(seg.Body(), seg.BodySize())
	if err != nil {
		return ipc.NewError(op, q.name, ipc.ErrInvalidObject, err)
	}
	if err = fn(st); err != nil {
		return ipc.Classify(op, q.name, err)
	}
	return nil
}

func (q *Queue) send(op string, data []byte, prio uint32, wait bool, d common.Deadline) (bool, error) {
	start := time.Now()
	var ok bool
	err := q.do(op, func(st *queueState) error {
		if maxSize := st.heap.maxMsgSize(); len(data) > maxSize {
			return ipc.NewError(op, q.name, ipc.ErrSizeExceeded,
				errors.Errorf("message of %d bytes, max size is %d", len(data), maxSize))
		}
		var err error
		ok, err = st.send(data, prio, wait, d)
		return err
	})
	if wait {
		metrics.ObserveWait(queueObject, op, start, ok, err)
	} else {
		metrics.Observe(queueObject, op, ok, err)
	}
	return ok, err
}

func (q *Queue) receive(op string, wait bool, d common.Deadline) (message, bool, error) {
	start := time.Now()
	var msg message
	var ok bool
	err := q.do(op, func(st *queueState) error {
		var err error
		msg, ok, err = st.receive(wait, d)
		return err
	})
	if wait {
		metrics.ObserveWait(queueObject, op, start, ok, err)
	} else {
		metrics.Observe(queueObject, op, ok, err)
	}
	return msg, ok, err
}

// Send sends a message with the given priority. It blocks, while the queue is full.
// If the message is larger, than the max message size, ErrSizeExceeded is returned without blocking.
func (q *Queue) Send(data []byte, prio uint32) error {
	_, err := q.send("send", data, prio, true, common.NoDeadline())
	return err
}

// TrySend sends a message, if the queue is not full. Returns false, if the queue was full.
func (q *Queue) TrySend(data []byte, prio uint32) (bool, error) {
	return q.send("try_send", data, prio, false, common.NoDeadline())
}

// TimedSend sends a message, waiting for free space for not longer, than timeout.
// Returns false, if the queue was still full, when the timeout expired.
func (q *Queue) TimedSend(data []byte, prio uint32, timeout time.Duration) (bool, error) {
	return q.send("timed_send", data, prio, true, common.DeadlineAfter(timeout))
}

// Receive receives a message with the highest priority. It blocks, while the queue is empty.
func (q *Queue) Receive() ([]byte, error) {
	data, _, err := q.ReceivePriority()
	return data, err
}

// ReceivePriority is like Receive, but it also returns message's priority.
func (q *Queue) ReceivePriority() ([]byte, uint32, error) {
	msg, _, err := q.receive("receive", true, common.NoDeadline())
	if err != nil {
		return nil, 0, err
	}
	return msg.data, msg.prio, nil
}

// TryReceive receives a message, if the queue is not empty.
// Returns false, if there were no messages.
func (q *Queue) TryReceive() ([]byte, bool, error) {
	data, _, ok, err := q.TryReceivePriority()
	return data, ok, err
}

// TryReceivePriority is like TryReceive, but it also returns message's priority.
func (q *Queue) TryReceivePriority() ([]byte, uint32, bool, error) {
	msg, ok, err := q.receive("try_receive", false, common.NoDeadline())
	if err != nil || !ok {
		return nil, 0, false, err
	}
	return msg.data, msg.prio, true, nil
}

// TimedReceive receives a message, waiting for it for not longer, than timeout.
// Returns false, if the queue was still empty, when the timeout expired.
func (q *Queue) TimedReceive(timeout time.Duration) ([]byte, bool, error) {
	data, _, ok, err := q.TimedReceivePriority(timeout)
	return data, ok, err
}

// TimedReceivePriority is like TimedReceive, but it also returns message's priority.
func (q *Queue) TimedReceivePriority(timeout time.Duration) ([]byte, uint32, bool, error) {
	msg, ok, err := q.receive("timed_receive", true, common.DeadlineAfter(timeout))
	if err != nil || !ok {
		return nil, 0, false, err
	}
	return msg.data, msg.prio, true, nil
}

// MaxMsg returns the capacity of the queue.
func (q *Queue) MaxMsg() (int, error) {
	var result int
	err := q.do("max_msg", func(st *queueState) error {
		result = st.heap.maxSize()
		return nil
	})
	return result, err
}

// MaxMsgSize returns the max message size of the queue.
func (q *Queue) MaxMsgSize() (int, error) {
	var result int
	err := q.do("max_msg_size", func(st *queueState) error {
		result = st.heap.maxMsgSize()
		return nil
	})
	return result, err
}

// NumMsg returns the number of messages in the queue. It never blocks, the result may be stale.
func (q *Queue) NumMsg() (int, error) {
	var result int
	err := q.do("num_msg", func(st *queueState) error {
		result = st.heap.Len()
		return nil
	})
	return result, err
}
