// Copyright 2016 Aleksandr Demakin. All rights reserved.

// Package segment implements typed shared memory segments, which can be
// safely created and opened by concurrent processes.
//
// A segment is a shared memory object with a header followed by a body.
// The creator initializes the body and then publishes the segment by setting
// the header's state. Openers wait until the segment is published.
package segment

import (
	"math"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/cenkalti/backoff/v4"
	ipc "github.com/nxgtw/interprocess"
	"github.com/nxgtw/interprocess/internal/common"
	"github.com/nxgtw/interprocess/mmf"
	"github.com/nxgtw/interprocess/shm"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Kind identifies the type of the object stored in a segment.
type Kind uint32

// Known segment kinds.
const (
	KindQueue     Kind = 0x4d534751 // MSGQ
	KindMutex     Kind = 0x4d555458 // MUTX
	KindSemaphore Kind = 0x53454d41 // SEMA
)

func (k Kind) String() string {
	switch k {
	case KindQueue:
		return "queue"
	case KindMutex:
		return "mutex"
	case KindSemaphore:
		return "semaphore"
	default:
		return "unknown"
	}
}

// Version is the layout version of the segments created by this package.
const Version = 1

const (
	stateUninitialized uint32 = 0
	stateReady         uint32 = 1
)

type header struct {
	state    uint32
	kind     uint32
	version  uint32
	_        uint32
	bodySize uint64
}

// HeaderSize is the size of the segment's header. The body starts right after it
// and is aligned to 8 bytes.
const HeaderSize = int(unsafe.Sizeof(header{}))

var errNotReady = errors.New("segment is not initialized")

// Initializer fills the body of a newly created segment.
type Initializer func(body unsafe.Pointer, size int) error

// Segment is a mapped shared memory segment.
type Segment struct {
	region  *mmf.MemoryRegion
	hdr     *header
	created bool
}

// Body returns a pointer to the segment's body.
func (s *Segment) Body() unsafe.Pointer {
	return unsafe.Add(unsafe.Pointer(s.hdr), HeaderSize)
}

// BodySize returns the size of the segment's body.
func (s *Segment) BodySize() int {
	return int(s.hdr.bodySize)
}

// Kind returns the kind of the segment.
func (s *Segment) Kind() Kind {
	return Kind(s.hdr.kind)
}

// Created returns true, if this segment was created by the call, that returned it.
func (s *Segment) Created() bool {
	return s.created
}

// Close unmaps the segment. The shared object itself is not affected.
func (s *Segment) Close() error {
	return s.region.Close()
}

// Create exclusively creates a new segment and initializes its body.
// If initialization fails, the segment is removed.
func Create(name string, kind Kind, bodySize int, init Initializer) (*Segment, error) {
	if bodySize < 0 || bodySize > math.MaxInt32-HeaderSize {
		return nil, ipc.NewError("create", name, ipc.ErrResourceLimit, errors.Errorf("invalid body size %d", bodySize))
	}
	total := HeaderSize + bodySize
	cfg := ipc.CurrentConfig()
	if cfg.CheckFreeSpace {
		ok, err := shm.HasSpaceFor(int64(total))
		if err != nil {
			ipc.Logger().Debug("free space check failed", zap.String("name", name), zap.Error(err))
		} else if !ok {
			return nil, ipc.NewError("create", name, ipc.ErrResourceLimit, errors.Errorf("not enough space for %d bytes", total))
		}
	}
	obj, err := shm.NewMemoryObject(name, true, cfg.Perm)
	if err != nil {
		return nil, err
	}
	defer obj.Close()
	seg, err := initSegment(obj, kind, total, init)
	if err != nil {
		if _, rmErr := shm.DestroyMemoryObject(name); rmErr != nil {
			ipc.Logger().Warn("failed to remove uninitialized object", zap.String("name", name), zap.Error(rmErr))
		}
		return nil, ipc.Classify("create", name, err)
	}
	ipc.Logger().Debug("object created", zap.String("name", name), zap.Stringer("kind", kind), zap.Int("size", total))
	return seg, nil
}

func initSegment(obj *shm.MemoryObject, kind Kind, total int, init Initializer) (*Segment, error) {
	if err := obj.Truncate(int64(total)); err != nil {
		return nil, err
	}
	region, err := mmf.NewMemoryRegion(obj, mmf.MEM_READWRITE, 0, total)
	if err != nil {
		return nil, err
	}
	seg := &Segment{region: region, hdr: (*header)(region.Pointer()), created: true}
	seg.hdr.kind = uint32(kind)
	seg.hdr.version = Version
	seg.hdr.bodySize = uint64(total - HeaderSize)
	if init != nil {
		if err = init(seg.Body(), seg.BodySize()); err != nil {
			region.Close()
			return nil, err
		}
	}
	atomic.StoreUint32(&seg.hdr.state, stateReady)
	return seg, nil
}

// Open opens an existing segment of the given kind.
// If the segment is being initialized by its creator, Open waits for it
// for at most Config.InitTimeout.
func Open(name string, kind Kind) (*Segment, error) {
	obj, err := shm.NewMemoryObject(name, false, 0)
	if err != nil {
		return nil, err
	}
	defer obj.Close()
	seg, err := waitReady(obj, ipc.CurrentConfig().InitTimeout)
	if err != nil {
		if errors.Is(err, errNotReady) {
			return nil, ipc.NewError("open", name, ipc.ErrInvalidObject, err)
		}
		return nil, ipc.Classify("open", name, err)
	}
	if err = seg.check(kind); err != nil {
		seg.Close()
		return nil, ipc.NewError("open", name, ipc.ErrInvalidObject, err)
	}
	return seg, nil
}

func waitReady(obj *shm.MemoryObject, timeout time.Duration) (*Segment, error) {
	var seg *Segment
	warned := false
	op := func() error {
		if seg == nil {
			size, err := obj.Size()
			if err != nil {
				return backoff.Permanent(err)
			}
			if size == 0 {
				return errNotReady
			}
			if size < int64(HeaderSize) || size > math.MaxInt32 {
				return backoff.Permanent(errors.Errorf("invalid object size %d", size))
			}
			region, err := mmf.NewMemoryRegion(obj, mmf.MEM_READWRITE, 0, int(size))
			if err != nil {
				return backoff.Permanent(err)
			}
			seg = &Segment{region: region, hdr: (*header)(region.Pointer())}
		}
		if atomic.LoadUint32(&seg.hdr.state) != stateReady {
			if !warned {
				warned = true
				ipc.Logger().Warn("waiting for object initialization", zap.String("name", obj.Name()))
			}
			return errNotReady
		}
		return nil
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Millisecond
	b.MaxInterval = 50 * time.Millisecond
	b.MaxElapsedTime = timeout
	if err := backoff.Retry(op, b); err != nil {
		if seg != nil {
			seg.Close()
		}
		return nil, err
	}
	return seg, nil
}

func (s *Segment) check(kind Kind) error {
	if Kind(s.hdr.kind) != kind {
		return errors.Errorf("expected %v, found %v", kind, Kind(s.hdr.kind))
	}
	if s.hdr.version != Version {
		return errors.Errorf("unsupported layout version %d", s.hdr.version)
	}
	if s.hdr.bodySize != uint64(s.region.Size()-HeaderSize) {
		return errors.Errorf("body size %d does not match object size %d", s.hdr.bodySize, s.region.Size())
	}
	return nil
}

// OpenOrCreate opens or creates a segment according to the mode.
// bodySize and init are used only, if the segment is created.
func OpenOrCreate(name string, kind Kind, mode ipc.OpenMode, bodySize int, init Initializer) (*Segment, error) {
	if !mode.Valid() {
		return nil, ipc.NewError("open", name, ipc.ErrInvalidArgument, errors.Errorf("unknown open mode %v", mode))
	}
	var seg *Segment
	creator := func(create bool) error {
		var err error
		if create {
			seg, err = Create(name, kind, bodySize, init)
		} else {
			seg, err = Open(name, kind)
		}
		return err
	}
	created, err := common.OpenOrCreate(creator, mode)
	if err != nil {
		return nil, err
	}
	if mode == ipc.O_OPEN_OR_CREATE {
		ipc.Logger().Debug("object attached", zap.String("name", name), zap.Stringer("kind", kind), zap.Bool("created", created))
	}
	return seg, nil
}

// Remove removes the segment's name. Mappings of the segment remain valid.
// Returns false, if there was no object with that name.
func Remove(name string) (bool, error) {
	existed, err := shm.DestroyMemoryObject(name)
	if err != nil {
		return false, err
	}
	if existed {
		ipc.Logger().Debug("object removed", zap.String("name", name))
	}
	return existed, nil
}
