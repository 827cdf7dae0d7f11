// Copyright 2016 Aleksandr Demakin. All rights reserved.

package mq

import (
	"container/heap"
	"unsafe"

	"github.com/nxgtw/interprocess/internal/array"
)

const (
	msgHeaderSize = int(unsafe.Sizeof(msgHeader{}))
)

// msgHeader precedes message's payload in a slot of the shared array.
type msgHeader struct {
	prio uint32
	_    uint32
	seq  uint64
}

type message struct {
	prio uint32
	seq  uint64
	data []byte
}

// sharedHeap is a max-heap of messages over a shared array.
// The order is: higher priority first, then lower sequence number first.
type sharedHeap struct {
	array *array.SharedArray
}

func newSharedHeap(raw unsafe.Pointer, maxQueueSize, maxMsgSize int) *sharedHeap {
	return &sharedHeap{
		array: array.NewSharedArray(raw, maxQueueSize, maxMsgSize+msgHeaderSize),
	}
}

func openSharedHeap(raw unsafe.Pointer) *sharedHeap {
	return &sharedHeap{
		array: array.OpenSharedArray(raw),
	}
}

func (mq *sharedHeap) maxMsgSize() int {
	return mq.array.ElemSize() - msgHeaderSize
}

func (mq *sharedHeap) maxSize() int {
	return mq.array.Cap()
}

func (mq *sharedHeap) full() bool {
	return mq.Len() >= mq.maxSize()
}

func (mq *sharedHeap) header(i int) *msgHeader {
	return (*msgHeader)(mq.array.AtPointer(i))
}

func (mq *sharedHeap) pushMessage(msg message) {
	heap.Push(mq, msg)
}

// popMessage removes the top message, returning a copy of it.
func (mq *sharedHeap) popMessage() message {
	hdr := mq.header(0)
	payload := mq.array.At(0)[msgHeaderSize:]
	msg := message{prio: hdr.prio, seq: hdr.seq, data: make([]byte, len(payload))}
	copy(msg.data, payload)
	heap.Pop(mq)
	return msg
}

// sort.Interface

func (mq *sharedHeap) Len() int {
	return mq.array.Len()
}

func (mq *sharedHeap) Less(i, j int) bool {
	// inverse less logic, as we want max-heap.
	l, r := mq.header(i), mq.header(j)
	if l.prio != r.prio {
		return l.prio > r.prio
	}
	return l.seq < r.seq
}

func (mq *sharedHeap) Swap(i, j int) {
	mq.array.Swap(i, j)
}

// heap.Interface

func (mq *sharedHeap) Push(x any) {
	msg := x.(message)
	hdr := msgHeader{prio: msg.prio, seq: msg.seq}
	hdrData := unsafe.Slice((*byte)(unsafe.Pointer(&hdr)), msgHeaderSize)
	mq.array.PushBack(hdrData, msg.data)
}

func (mq *sharedHeap) Pop() any {
	mq.array.PopBack()
	return nil
}

// calcSharedHeapSize returns the size of the heap's memory, or -1, if it is too big.
func calcSharedHeapSize(maxQueueSize, maxMsgSize int) int {
	if maxMsgSize < 0 || maxMsgSize > int(^uint32(0)>>1)-msgHeaderSize {
		return -1
	}
	return array.CalcSharedArraySize(maxQueueSize, maxMsgSize+msgHeaderSize)
}
