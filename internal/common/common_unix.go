// Copyright 2016 Aleksandr Demakin. All rights reserved.

//go:build darwin || dragonfly || freebsd || linux || netbsd || openbsd || solaris

package common

import (
	"syscall"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// TimeoutToTimeSpec converts a relative timeout into a timespec.
// Negative timeout means infinite wait, for which nil is returned.
func TimeoutToTimeSpec(timeout time.Duration) *unix.Timespec {
	if timeout >= 0 {
		ts := unix.NsecToTimespec(timeout.Nanoseconds())
		return &ts
	}
	return nil
}

// IsInterruptedSyscallErr returns true, if err is EINTR.
func IsInterruptedSyscallErr(err error) bool {
	return SyscallErrHasCode(err, unix.EINTR)
}

// IsTimeoutErr returns true, if err is ETIMEDOUT.
func IsTimeoutErr(err error) bool {
	return SyscallErrHasCode(err, unix.ETIMEDOUT)
}

// SyscallErrHasCode returns true, if err is, or wraps, a syscall error with the given code.
func SyscallErrHasCode(err error, code syscall.Errno) bool {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == code
	}
	return false
}
