// Copyright 2016 Aleksandr Demakin. All rights reserved.

package interprocess

import (
	"fmt"

	"github.com/pkg/errors"
)

// OpenMode defines how an object is opened with respect to its existence.
type OpenMode int

// common modes for opening/creation of objects.
const (
	// O_OPEN_OR_CREATE opens an existing object or creates a new one.
	O_OPEN_OR_CREATE OpenMode = 0x00000001
	// O_CREATE_ONLY creates a new object and fails, if it already exists.
	O_CREATE_ONLY OpenMode = 0x00000002
	// O_OPEN_ONLY opens an existing object and fails, if it does not exist.
	O_OPEN_ONLY OpenMode = 0x00000004
)

// Valid returns true, if mode is one of the known modes.
func (mode OpenMode) Valid() bool {
	return mode == O_OPEN_OR_CREATE || mode == O_CREATE_ONLY || mode == O_OPEN_ONLY
}

func (mode OpenMode) String() string {
	switch mode {
	case O_OPEN_OR_CREATE:
		return "open-or-create"
	case O_CREATE_ONLY:
		return "create-only"
	case O_OPEN_ONLY:
		return "open-only"
	default:
		return fmt.Sprintf("OpenMode(%d)", int(mode))
	}
}

// ParseOpenMode converts a mode name, as returned by OpenMode.String, into OpenMode.
func ParseOpenMode(s string) (OpenMode, error) {
	for _, mode := range []OpenMode{O_OPEN_OR_CREATE, O_CREATE_ONLY, O_OPEN_ONLY} {
		if mode.String() == s {
			return mode, nil
		}
	}
	return 0, errors.Errorf("unknown open mode %q", s)
}
