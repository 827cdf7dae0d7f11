// Copyright 2016 Aleksandr Demakin. All rights reserved.

package interprocess

import (
	"os"
	"syscall"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	a := assert.New(t)
	a.NoError(Classify("open", "x", nil))

	notExist := &os.PathError{Op: "open", Path: "/dev/shm/x", Err: syscall.ENOENT}
	err := Classify("open", "x", notExist)
	a.True(errors.Is(err, ErrNotFound))
	a.True(errors.Is(err, os.ErrNotExist))
	a.Equal(ErrNotFound, errors.Cause(err))

	exist := &os.PathError{Op: "open", Path: "/dev/shm/x", Err: syscall.EEXIST}
	a.True(errors.Is(Classify("create", "x", exist), ErrAlreadyExists))

	noSpace := os.NewSyscallError("ftruncate", syscall.ENOSPC)
	a.True(errors.Is(Classify("create", "x", noSpace), ErrResourceLimit))
	a.True(errors.Is(Classify("create", "x", syscall.EMFILE), ErrResourceLimit))

	other := errors.New("boom")
	classified := Classify("send", "x", other)
	a.Error(classified)
	a.Equal(other, errors.Cause(classified))

	// already classified errors are kept as is.
	a.Equal(err, Classify("send", "x", err))
}

func TestErrorMessage(t *testing.T) {
	a := assert.New(t)
	err := NewError("open", "/q", ErrNotFound, nil)
	a.Equal(`open "/q": object not found`, err.Error())
	err = NewError("open", "/q", ErrNotFound, errors.New("no such file"))
	a.Equal(`open "/q": object not found: no such file`, err.Error())
}
