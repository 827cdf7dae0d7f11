// Copyright 2016 Aleksandr Demakin. All rights reserved.

package main

import (
	"flag"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/pkg/errors"
	"github.com/valyala/bytebufferpool"
	"go.uber.org/zap"

	ipc "github.com/nxgtw/interprocess"
	"github.com/nxgtw/interprocess/ident"
	"github.com/nxgtw/interprocess/mq"
	ipc_sync "github.com/nxgtw/interprocess/sync"
)

// waitFlags selects one of blocking, non-blocking and timed variants of an operation.
type waitFlags struct {
	try     bool
	timeout time.Duration
}

func (w *waitFlags) register(fs *flag.FlagSet) {
	fs.BoolVar(&w.try, "try", false, "do not block")
	fs.DurationVar(&w.timeout, "timeout", 0, "wait for not longer, than timeout (0 waits forever)")
}

func (w *waitFlags) do(block func() error, try func() (bool, error), timed func(time.Duration) (bool, error)) error {
	var ok bool
	var err error
	switch {
	case w.try:
		ok, err = try()
	case w.timeout > 0:
		ok, err = timed(w.timeout)
	default:
		return block()
	}
	if err == nil && !ok {
		return errNegative
	}
	return err
}

func parseAction(group string, args []string) (string, *flag.FlagSet, error) {
	if len(args) == 0 {
		return "", nil, errors.Errorf("%s: missing action", group)
	}
	fs := flag.NewFlagSet(group+" "+args[0], flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return args[0], fs, nil
}

func parseName(fs *flag.FlagSet, args []string) (string, error) {
	if err := fs.Parse(args); err != nil {
		return "", errors.Wrap(err, fs.Name())
	}
	if fs.NArg() != 1 {
		return "", errors.Errorf("%s: expected a single object name", fs.Name())
	}
	return fs.Arg(0), nil
}

func registerMode(fs *flag.FlagSet) *string {
	return fs.String("mode", ipc.O_OPEN_ONLY.String(), "open mode of the open action: open-only, create-only or open-or-create")
}

// lifecycleMode returns the open mode of a create, open or ensure action.
// The open action uses the mode given by the -mode flag.
func lifecycleMode(action, mode string) (ipc.OpenMode, error) {
	switch action {
	case "create":
		return ipc.O_CREATE_ONLY, nil
	case "ensure":
		return ipc.O_OPEN_OR_CREATE, nil
	default:
		return ipc.ParseOpenMode(mode)
	}
}

func printRemoved(e *env, name string, removed bool) {
	e.log.Debug("remove", zap.String("name", name), zap.Bool("removed", removed))
	fmt.Fprintln(e.stdout, removed)
}

func runMq(e *env, args []string) error {
	action, fs, err := parseAction("mq", args)
	if err != nil {
		return err
	}
	var wait waitFlags
	wait.register(fs)
	mode := registerMode(fs)
	capacity := fs.Int("cap", 10, "queue capacity")
	size := fs.Int("size", 1024, "max message size")
	prio := fs.Uint("prio", 0, "message priority")
	data := fs.String("data", "", "message payload, if empty, stdin is read")
	showPrio := fs.Bool("print-prio", false, "print message priority before the payload")
	name, err := parseName(fs, args[1:])
	if err != nil {
		return err
	}
	switch action {
	case "create", "open", "ensure":
		m, err := lifecycleMode(action, *mode)
		if err != nil {
			return err
		}
		_, err = mq.New(name, m, *capacity, *size)
		return err
	case "rm":
		removed, err := mq.Remove(name)
		if err == nil {
			printRemoved(e, name, removed)
		}
		return err
	}
	q, err := mq.OpenOnly(name)
	if err != nil {
		return err
	}
	switch action {
	case "send":
		if *prio > math.MaxUint32 {
			return errors.Errorf("priority %d is too big", *prio)
		}
		buf := bytebufferpool.Get()
		defer bytebufferpool.Put(buf)
		if len(*data) > 0 {
			buf.SetString(*data)
		} else if _, err = buf.ReadFrom(e.stdin); err != nil {
			return errors.Wrap(err, "failed to read payload")
		}
		payload, p := buf.Bytes(), uint32(*prio)
		return wait.do(
			func() error { return q.Send(payload, p) },
			func() (bool, error) { return q.TrySend(payload, p) },
			func(timeout time.Duration) (bool, error) { return q.TimedSend(payload, p, timeout) },
		)
	case "recv":
		var payload []byte
		var p uint32
		err = wait.do(
			func() (err error) {
				payload, p, err = q.ReceivePriority()
				return err
			},
			func() (ok bool, err error) {
				payload, p, ok, err = q.TryReceivePriority()
				return ok, err
			},
			func(timeout time.Duration) (ok bool, err error) {
				payload, p, ok, err = q.TimedReceivePriority(timeout)
				return ok, err
			},
		)
		if err != nil {
			return err
		}
		if *showPrio {
			fmt.Fprintf(e.stdout, "%d ", p)
		}
		_, err = e.stdout.Write(payload)
		return err
	case "info":
		maxMsg, err := q.MaxMsg()
		if err != nil {
			return err
		}
		maxMsgSize, err := q.MaxMsgSize()
		if err != nil {
			return err
		}
		numMsg, err := q.NumMsg()
		if err != nil {
			return err
		}
		fmt.Fprintf(e.stdout, "max_msg=%d max_msg_size=%d num_msg=%d\n", maxMsg, maxMsgSize, numMsg)
		return nil
	default:
		return errors.Errorf("mq: unknown action %q", action)
	}
}

func runMutex(e *env, args []string) error {
	action, fs, err := parseAction("mutex", args)
	if err != nil {
		return err
	}
	var wait waitFlags
	wait.register(fs)
	mode := registerMode(fs)
	name, err := parseName(fs, args[1:])
	if err != nil {
		return err
	}
	switch action {
	case "create", "open", "ensure":
		m, err := lifecycleMode(action, *mode)
		if err != nil {
			return err
		}
		_, err = ipc_sync.NewMutex(name, m)
		return err
	case "rm":
		removed, err := ipc_sync.RemoveMutex(name)
		if err == nil {
			printRemoved(e, name, removed)
		}
		return err
	}
	m, err := ipc_sync.OpenMutex(name)
	if err != nil {
		return err
	}
	switch action {
	case "lock":
		return wait.do(m.Lock, m.TryLock, m.TimedLock)
	case "unlock":
		return m.Unlock()
	case "rlock":
		return wait.do(m.LockSharable, m.TryLockSharable, m.TimedLockSharable)
	case "runlock":
		return m.UnlockSharable()
	default:
		return errors.Errorf("mutex: unknown action %q", action)
	}
}

func runSem(e *env, args []string) error {
	action, fs, err := parseAction("sem", args)
	if err != nil {
		return err
	}
	var wait waitFlags
	wait.register(fs)
	mode := registerMode(fs)
	initial := fs.Uint("initial", 0, "initial value")
	name, err := parseName(fs, args[1:])
	if err != nil {
		return err
	}
	if *initial > math.MaxUint32 {
		return errors.Errorf("initial value %d is too big", *initial)
	}
	switch action {
	case "create", "open", "ensure":
		m, err := lifecycleMode(action, *mode)
		if err != nil {
			return err
		}
		_, err = ipc_sync.NewSemaphore(name, m, uint32(*initial))
		return err
	case "rm":
		removed, err := ipc_sync.RemoveSemaphore(name)
		if err == nil {
			printRemoved(e, name, removed)
		}
		return err
	}
	s, err := ipc_sync.OpenSemaphore(name)
	if err != nil {
		return err
	}
	switch action {
	case "post":
		return s.Post()
	case "wait":
		return wait.do(s.Wait, s.TryWait, s.TimedWait)
	case "value":
		value, err := s.Value()
		if err == nil {
			fmt.Fprintln(e.stdout, value)
		}
		return err
	default:
		return errors.Errorf("sem: unknown action %q", action)
	}
}

func runName(e *env, args []string) error {
	if len(args) > 1 {
		return errors.New("name: expected at most one prefix")
	}
	var prefix string
	if len(args) == 1 {
		prefix = args[0]
	}
	name, err := ident.NewName(prefix)
	if err != nil {
		return err
	}
	fmt.Fprintln(e.stdout, name)
	return nil
}

func runHash(e *env, args []string) error {
	if len(args) != 1 {
		return errors.New("hash: expected a single string")
	}
	fmt.Fprintln(e.stdout, ident.Hash(args[0]))
	return nil
}
