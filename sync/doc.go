// Copyright 2016 Aleksandr Demakin. All rights reserved.

/*
Package sync implements named synchronization primitives, which can be used
by unrelated processes.

NamedMutex is a sharable (reader-writer) mutex with writer preference.
NamedSemaphore is a counting semaphore.

Both types are lightweight values bound to a name. The state of an object lives in
a shared memory segment, every operation opens the segment by its name, operates
on the shared state and unmaps it. Blocking is implemented with futexes on the
shared memory, so it is supported on linux only. On other platforms blocking
operations return interprocess.ErrUnsupported, non-blocking ones work everywhere.

The package also exports in-place primitives (InplaceMutex, InplaceCond), which
can be placed into any shared memory region by other packages.
*/
package sync
