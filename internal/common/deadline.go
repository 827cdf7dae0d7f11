// Copyright 2016 Aleksandr Demakin. All rights reserved.

package common

import (
	"time"
)

// Deadline is an absolute point in time, until which an operation can block.
// Zero Deadline means no limit.
type Deadline struct {
	at time.Time
}

// NoDeadline returns a deadline, which never expires.
func NoDeadline() Deadline {
	return Deadline{}
}

// DeadlineAfter converts a relative timeout into an absolute deadline.
func DeadlineAfter(timeout time.Duration) Deadline {
	return Deadline{at: time.Now().Add(timeout)}
}

// IsInfinite returns true, if the deadline never expires.
func (d Deadline) IsInfinite() bool {
	return d.at.IsZero()
}

// Remaining returns the time left until the deadline, which is never negative.
// For infinite deadlines -1 is returned.
func (d Deadline) Remaining() time.Duration {
	if d.IsInfinite() {
		return -1
	}
	left := time.Until(d.at)
	if left < 0 {
		return 0
	}
	return left
}

// Expired returns true, if the deadline has passed.
func (d Deadline) Expired() bool {
	return !d.IsInfinite() && !time.Now().Before(d.at)
}
