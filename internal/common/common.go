// Copyright 2016 Aleksandr Demakin. All rights reserved.

// Package common contains helpers shared by the named objects implementations.
package common

import (
	"os"

	ipc "github.com/nxgtw/interprocess"
	"github.com/pkg/errors"
)

const openOrCreateAttempts = 16

// OpenOrCreate calls creator according to the open mode.
// creator is called with true to create a new object exclusively, and with false to open an existing one.
// For O_OPEN_OR_CREATE it retries, while the object is being concurrently created and removed.
// Returns true, if the object was created.
func OpenOrCreate(creator func(create bool) error, mode ipc.OpenMode) (bool, error) {
	switch mode {
	case ipc.O_OPEN_ONLY:
		return false, creator(false)
	case ipc.O_CREATE_ONLY:
		if err := creator(true); err != nil {
			return false, err
		}
		return true, nil
	case ipc.O_OPEN_OR_CREATE:
		var err error
		for attempt := 0; attempt < openOrCreateAttempts; attempt++ {
			if err = creator(true); !isExist(err) {
				return err == nil, err
			}
			if err = creator(false); !isNotExist(err) {
				return false, err
			}
		}
		return false, err
	default:
		return false, errors.Errorf("unknown open mode %v", mode)
	}
}

func isExist(err error) bool {
	return err != nil && (os.IsExist(err) || errors.Is(err, ipc.ErrAlreadyExists))
}

func isNotExist(err error) bool {
	return err != nil && (os.IsNotExist(err) || errors.Is(err, ipc.ErrNotFound))
}
