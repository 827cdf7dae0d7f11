// Copyright 2016 Aleksandr Demakin. All rights reserved.

package interprocess

import (
	"fmt"
	"os"
	"syscall"

	"github.com/pkg/errors"
)

// Errors, reported by the operations on named objects.
// Use errors.Is to check, whether an error has one of these kinds.
var (
	// ErrAlreadyExists is returned by create-only operations for an existing name.
	ErrAlreadyExists = errors.New("object already exists")
	// ErrNotFound is returned, when an object with the given name does not exist.
	ErrNotFound = errors.New("object not found")
	// ErrSizeExceeded is returned, when a message is larger, than the queue's max message size.
	ErrSizeExceeded = errors.New("message size exceeded")
	// ErrResourceLimit is returned, when the system can't provide resources for the object.
	ErrResourceLimit = errors.New("resource limit reached")
	// ErrInvalidName is returned for names, that can't be used as shared object names.
	ErrInvalidName = errors.New("invalid object name")
	// ErrInvalidArgument is returned for invalid object parameters.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidObject is returned, when a shared object has unexpected type or layout,
	// or its creator has not initialized it in time.
	ErrInvalidObject = errors.New("invalid object")
	// ErrUnsupported is returned on platforms without blocking primitives support.
	ErrUnsupported = errors.New("operation is not supported on this platform")
)

// Error describes a failed operation on a named object.
type Error struct {
	// Op is the operation, like "open" or "send".
	Op string
	// Name is the object's name.
	Name string
	// Kind is one of the Err* values of this package.
	Kind error
	// Err is the underlying error. It may be nil.
	Err error
}

// NewError returns a new error for a named object.
func NewError(op, name string, kind, cause error) *Error {
	return &Error{Op: op, Name: name, Kind: kind, Err: cause}
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s %q: %v", e.Op, e.Name, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Cause returns the kind of the error. It is used by errors.Cause.
func (e *Error) Cause() error {
	return e.Kind
}

// Unwrap allows to match both the kind and the underlying error with errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Classify converts an error returned by the system into *Error,
// whose kind is one of the package's errors. Errors, that are already classified,
// and errors of unknown kind are returned as is.
func Classify(op, name string, err error) error {
	if err == nil {
		return nil
	}
	var classified *Error
	if errors.As(err, &classified) {
		return err
	}
	if kind := kindOf(err); kind != nil {
		return NewError(op, name, kind, err)
	}
	return errors.Wrapf(err, "%s %q", op, name)
}

func kindOf(err error) error {
	switch {
	case os.IsExist(err):
		return ErrAlreadyExists
	case os.IsNotExist(err):
		return ErrNotFound
	}
	var errno syscall.Errno
	if !errors.As(err, &errno) {
		return nil
	}
	switch errno {
	case syscall.ENOSPC, syscall.ENOMEM, syscall.EMFILE, syscall.ENFILE, syscall.EFBIG:
		return ErrResourceLimit
	case syscall.ENAMETOOLONG:
		return ErrInvalidName
	}
	return nil
}
