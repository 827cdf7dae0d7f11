// Copyright 2015 Aleksandr Demakin. All rights reserved.

package shm

import (
	"os"
	"path/filepath"

	ipc "github.com/nxgtw/interprocess"
	"github.com/pkg/errors"
)

// MemoryObject represents an object which can be used to
// map shared memory regions into the process' address space.
type MemoryObject struct {
	file *os.File
	name string
}

// NewMemoryObject opens or exclusively creates a shared memory object.
// name - a name of the object, with or without leading '/'.
// create - if true, the object is created and the call fails with ErrAlreadyExists, if it exists.
// perm - file's permission bits.
func NewMemoryObject(name string, create bool, perm os.FileMode) (*MemoryObject, error) {
	op := "open"
	if create {
		op = "create"
	}
	path, err := Path(name)
	if err != nil {
		return nil, err
	}
	flag := os.O_RDWR
	if create {
		flag |= os.O_CREATE | os.O_EXCL
	}
	file, err := os.OpenFile(path, flag, perm)
	if err != nil {
		return nil, ipc.Classify(op, name, err)
	}
	if create {
		// the umask could have cleared some bits.
		if err = file.Chmod(perm); err != nil {
			file.Close()
			os.Remove(path)
			return nil, ipc.Classify(op, name, err)
		}
	}
	return &MemoryObject{file: file, name: name}, nil
}

// Name returns the name of the object as it was given to NewMemoryObject.
func (obj *MemoryObject) Name() string {
	return obj.name
}

// Truncate resizes the object.
func (obj *MemoryObject) Truncate(size int64) error {
	if err := obj.file.Truncate(size); err != nil {
		return ipc.Classify("truncate", obj.name, err)
	}
	return nil
}

// Size returns current object size, or an error, if it couldn't be obtained.
func (obj *MemoryObject) Size() (int64, error) {
	fileInfo, err := obj.file.Stat()
	if err != nil {
		return 0, errors.Wrap(err, "failed to stat shm object")
	}
	return fileInfo.Size(), nil
}

// Fd returns a descriptor of the object's file.
func (obj *MemoryObject) Fd() uintptr {
	return obj.file.Fd()
}

// Close closes the object. The object itself exists until it is destroyed.
func (obj *MemoryObject) Close() error {
	return obj.file.Close()
}

// DestroyMemoryObject removes an object with the given name.
// Processes, that have the object mapped, continue to use its memory.
// Returns false and no error, if the object did not exist.
func DestroyMemoryObject(name string) (bool, error) {
	path, err := Path(name)
	if err != nil {
		return false, err
	}
	if err = os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, ipc.Classify("remove", name, err)
	}
	return true, nil
}

// Path returns the path of the object's file.
func Path(name string) (string, error) {
	canonical, err := ipc.CanonicalName(name)
	if err != nil {
		return "", err
	}
	dir, err := Dir()
	if err != nil {
		return "", ipc.NewError("locate", name, ipc.ErrUnsupported, err)
	}
	return filepath.Join(dir, canonical), nil
}

// Dir returns the directory, where shared memory objects are placed.
// It is either set by configuration, or detected automatically.
func Dir() (string, error) {
	if dir := ipc.CurrentConfig().ShmDir; len(dir) > 0 {
		return dir, nil
	}
	return shmDirectory()
}
