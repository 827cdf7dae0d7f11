// Copyright 2015 Aleksandr Demakin. All rights reserved.

//go:build !linux

package shm

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

func shmDirectory() (string, error) {
	dir := filepath.Join(os.TempDir(), "interprocess")
	if err := os.MkdirAll(dir, 0777); err != nil {
		return "", errors.Wrap(err, "failed to create objects directory")
	}
	return dir, nil
}
