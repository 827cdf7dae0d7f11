// Copyright 2016 Aleksandr Demakin. All rights reserved.

// Package interprocess provides named primitives for inter-process communication.
// Currently it implements the following mechanisms:
//
//   - priority message queues (package mq)
//   - sharable (readers-writer) mutexes (package sync)
//   - counting semaphores (package sync)
//
// All of them live in named shared memory objects and are addressed by a name,
// so unrelated processes can use the same object. Blocking is done with futexes,
// which means, that blocking operations are supported on linux only.
//
// Objects are never cached inside a process. An accessor, returned by a create or
// open function, is just a name: every operation opens the object, does its work,
// and releases the mapping before returning. All the state lives in the object itself.
//
// Names follow posix shared memory rules: an optional leading '/', followed by a
// non-empty string without other slashes. "/queue" and "queue" refer to the same object.
package interprocess
