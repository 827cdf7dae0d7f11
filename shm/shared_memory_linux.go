// Copyright 2015 Aleksandr Demakin. All rights reserved.

//go:build linux

package shm

import (
	"bufio"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

const (
	defaultShmPath   = "/dev/shm"
	cShmfsSuperMagic = 0x01021994
	cRamfsMagic      = 0x858458f6
)

var (
	shmPathOnce sync.Once
	shmPath     string
)

func shmDirectory() (string, error) {
	shmPathOnce.Do(locateShmFs)
	if len(shmPath) == 0 {
		return "", errors.New("error locating the shared memory path")
	}
	return shmPath, nil
}

// glibc/sysdeps/unix/sysv/linux/shm-directory.c
func locateShmFs() {
	if checkShmPath(defaultShmPath) {
		shmPath = defaultShmPath
	} else {
		shmPath = shmFsFromMounts()
	}
}

func checkShmPath(path string) bool {
	if len(path) == 0 {
		return false
	}
	var statfs unix.Statfs_t
	if err := unix.Statfs(path, &statfs); err != nil {
		return false
	}
	return isShmFs(int64(statfs.Type))
}

func isShmFs(fsType int64) bool {
	return fsType == cShmfsSuperMagic || fsType == cRamfsMagic
}

func shmFsFromMounts() string {
	fsFile, err := os.Open("/proc/mounts")
	if err != nil {
		if fsFile, err = os.Open("/etc/fstab"); err != nil {
			return ""
		}
	}
	defer fsFile.Close()
	return shmFsFromReader(fsFile, checkShmPath)
}

// shmFsFromReader returns the first tmpfs mount point from fstab-formatted data,
// which passes the check.
func shmFsFromReader(r io.Reader, check func(string) bool) string {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		dir, fsType := fields[1], fields[2]
		if (fsType == "tmpfs" || fsType == "shm") && check(dir) {
			return strings.TrimSuffix(dir, "/")
		}
	}
	return ""
}
