// Copyright 2015 Aleksandr Demakin. All rights reserved.

//go:build linux

package shm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShmFsFromReader(t *testing.T) {
	const (
		testData = `
			#
			# /etc/fstab
			# name dir type opts freq passno
			UUID=cd459033-ae0a-4fb4-96fb-2323365a8e21 /                       ext4    defaults        1 1
			UUID=53d61062-7b6b-4f5b-80fd-7baf4017f96d swap                    swap    defaults        0 0
			tmpfs /run/shm/ tmpfs rw,seclabel,nosuid,nodev 0 0
		`
		testData2 = "tmpfs /dev/shm nottmpfs rw,seclabel,nosuid,nodev 0 0"
	)
	a := assert.New(t)
	accept := func(string) bool { return true }
	a.Equal("/run/shm", shmFsFromReader(strings.NewReader(testData), accept))
	a.Equal("", shmFsFromReader(strings.NewReader(testData), func(string) bool { return false }))
	a.Equal("", shmFsFromReader(strings.NewReader(testData2), accept))
}

func TestShmDirectory(t *testing.T) {
	a := assert.New(t)
	dir, err := shmDirectory()
	a.NoError(err)
	a.NotEmpty(dir)
	a.True(checkShmPath(dir))
}
