// Copyright 2015 Aleksandr Demakin. All rights reserved.

// Package shm implements named shared memory objects, which are files
// on a memory-backed filesystem, like /dev/shm on linux.
package shm
