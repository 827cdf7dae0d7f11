// Copyright 2016 Aleksandr Demakin. All rights reserved.

/*
Package mq implements a named priority message queue in shared memory.

A queue has a fixed capacity and a max message size, both set at creation.
Messages are delivered in the order of their priorities, highest first.
Messages with equal priorities are delivered in the order they were sent.

Queue is a lightweight value bound to the queue's name. Every operation opens
the shared memory object by its name, performs the action and unmaps the object,
so a Queue never holds any resources and does not need to be closed. After Remove,
operations on existing Queue values fail with interprocess.ErrNotFound.

	q, err := mq.OpenOrCreate("/jobs", 16, 1024)
	if err != nil {
		return err
	}
	if err = q.Send([]byte("job"), 10); err != nil {
		return err
	}
	data, err := q.Receive()
*/
package mq
