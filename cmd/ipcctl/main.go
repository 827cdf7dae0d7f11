// Copyright 2016 Aleksandr Demakin. All rights reserved.

// Command ipcctl manages named queues, mutexes and semaphores.
//
//	ipcctl mq    create|open|ensure|send|recv|info|rm [flags] NAME
//	ipcctl mutex create|open|ensure|lock|unlock|rlock|runlock|rm [flags] NAME
//	ipcctl sem   create|open|ensure|post|wait|value|rm [flags] NAME
//	ipcctl name  [PREFIX]
//	ipcctl hash  STRING
//
// The open action takes the -mode flag: open-only (default), create-only or open-or-create.
// Settings are read from IPC_* environment variables.
// Exit code is 0 on success, 1 on error, and 2, if a non-blocking
// or timed operation could not be completed.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"go.uber.org/zap"

	ipc "github.com/nxgtw/interprocess"
	"github.com/nxgtw/interprocess/metrics"
)

const (
	exitOK       = 0
	exitError    = 1
	exitNegative = 2
)

// errNegative is returned by commands, whose try or timed operation has failed.
var errNegative = errors.New("operation could not be completed")

type env struct {
	stdin  io.Reader
	stdout io.Writer
	log    *zap.Logger
}

type command func(e *env, args []string) error

var commands = map[string]command{
	"mq":    runMq,
	"mutex": runMutex,
	"sem":   runSem,
	"name":  runName,
	"hash":  runHash,
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return exitError
	}
	cmd, found := commands[args[0]]
	if !found {
		usage(stderr)
		return exitError
	}
	cfg, err := ipc.LoadConfig()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}
	logger, err := newLogger(cfg.Log)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}
	defer logger.Sync()
	if err = ipc.SetConfig(cfg); err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}
	ipc.SetLogger(logger)
	defer ipc.SetLogger(nil)
	reg := prometheus.NewRegistry()
	if err = metrics.Register(reg); err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}
	e := &env{stdin: stdin, stdout: stdout, log: logger}
	err = cmd(e, args[1:])
	if cfg.Log.Level == "debug" {
		dumpMetrics(reg, stderr)
	}
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errNegative):
		logger.Info("operation could not be completed", zap.Strings("args", args))
		return exitNegative
	default:
		fmt.Fprintln(stderr, err)
		return exitError
	}
}

func dumpMetrics(g prometheus.Gatherer, w io.Writer) {
	families, err := g.Gather()
	if err != nil {
		return
	}
	for _, mf := range families {
		expfmt.MetricFamilyToText(w, mf)
	}
}

func usage(w io.Writer) {
	fmt.Fprint(w, `usage:
	ipcctl mq    create|open|ensure|send|recv|info|rm [flags] NAME
	ipcctl mutex create|open|ensure|lock|unlock|rlock|runlock|rm [flags] NAME
	ipcctl sem   create|open|ensure|post|wait|value|rm [flags] NAME
	ipcctl name  [PREFIX]
	ipcctl hash  STRING
`)
}
