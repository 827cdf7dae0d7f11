// Copyright 2016 Aleksandr Demakin. All rights reserved.

package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/nxgtw/interprocess/ident"
)

func runCmd(stdin string, args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := run(args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestUsage(t *testing.T) {
	a := assert.New(t)
	code, _, stderr := runCmd("")
	a.Equal(exitError, code)
	a.Contains(stderr, "usage")
	code, _, _ = runCmd("", "unknown")
	a.Equal(exitError, code)
}

func TestHashAndName(t *testing.T) {
	a := assert.New(t)
	code, stdout, _ := runCmd("", "hash", "abc")
	a.Equal(exitOK, code)
	a.Equal(ident.Hash("abc")+"\n", stdout)
	code, stdout, _ = runCmd("", "name", "pfx-")
	a.Equal(exitOK, code)
	a.True(strings.HasPrefix(stdout, "/pfx-"))
}

func TestMqCommands(t *testing.T) {
	a := assert.New(t)
	name := "/ipcctl-test-" + uuid.NewString()
	code, _, stderr := runCmd("", "mq", "create", "-cap", "2", "-size", "16", name)
	if !a.Equal(exitOK, code, stderr) {
		return
	}
	defer runCmd("", "mq", "rm", name)
	code, _, _ = runCmd("", "mq", "create", name)
	a.Equal(exitError, code)
	code, _, _ = runCmd("", "mq", "open", "-mode", "open-or-create", "-cap", "0", name)
	a.Equal(exitOK, code)
	code, _, _ = runCmd("", "mq", "open", "-mode", "create-only", name)
	a.Equal(exitError, code)
	code, _, _ = runCmd("", "mq", "open", "-mode", "truncate", name)
	a.Equal(exitError, code)
	code, _, _ = runCmd("", "mq", "send", "-prio", "1", "-data", "low", name)
	a.Equal(exitOK, code)
	code, _, _ = runCmd("high", "mq", "send", "-prio", "9", name)
	a.Equal(exitOK, code)
	code, _, _ = runCmd("", "mq", "send", "-try", "-data", "x", name)
	a.Equal(exitNegative, code)
	code, stdout, _ := runCmd("", "mq", "info", name)
	a.Equal(exitOK, code)
	a.Equal("max_msg=2 max_msg_size=16 num_msg=2\n", stdout)
	code, stdout, _ = runCmd("", "mq", "recv", "-print-prio", name)
	a.Equal(exitOK, code)
	a.Equal("9 high", stdout)
	code, stdout, _ = runCmd("", "mq", "recv", "-try", name)
	a.Equal(exitOK, code)
	a.Equal("low", stdout)
	code, _, _ = runCmd("", "mq", "recv", "-try", name)
	a.Equal(exitNegative, code)
	code, _, _ = runCmd("", "mq", "send", "-data", "this payload is too long", name)
	a.Equal(exitError, code)
	code, stdout, _ = runCmd("", "mq", "rm", name)
	a.Equal(exitOK, code)
	a.Equal("true\n", stdout)
	code, stdout, _ = runCmd("", "mq", "rm", name)
	a.Equal(exitOK, code)
	a.Equal("false\n", stdout)
}

func TestMutexCommands(t *testing.T) {
	a := assert.New(t)
	name := "/ipcctl-test-" + uuid.NewString()
	code, _, _ := runCmd("", "mutex", "ensure", name)
	if !a.Equal(exitOK, code) {
		return
	}
	defer runCmd("", "mutex", "rm", name)
	code, _, _ = runCmd("", "mutex", "rlock", "-try", name)
	a.Equal(exitOK, code)
	code, _, _ = runCmd("", "mutex", "lock", "-try", name)
	a.Equal(exitNegative, code)
	code, _, _ = runCmd("", "mutex", "runlock", name)
	a.Equal(exitOK, code)
	code, _, _ = runCmd("", "mutex", "lock", "-try", name)
	a.Equal(exitOK, code)
	code, _, _ = runCmd("", "mutex", "unlock", name)
	a.Equal(exitOK, code)
}

func TestSemCommands(t *testing.T) {
	a := assert.New(t)
	name := "/ipcctl-test-" + uuid.NewString()
	code, _, _ := runCmd("", "sem", "create", "-initial", "1", name)
	if !a.Equal(exitOK, code) {
		return
	}
	defer runCmd("", "sem", "rm", name)
	code, _, _ = runCmd("", "sem", "wait", "-try", name)
	a.Equal(exitOK, code)
	code, _, _ = runCmd("", "sem", "wait", "-try", name)
	a.Equal(exitNegative, code)
	code, _, _ = runCmd("", "sem", "post", name)
	a.Equal(exitOK, code)
	code, stdout, _ := runCmd("", "sem", "value", name)
	a.Equal(exitOK, code)
	a.Equal("1\n", stdout)
	code, _, _ = runCmd("", "sem", "open", "/ipcctl-missing-"+uuid.NewString())
	a.Equal(exitError, code)
	missing := "/ipcctl-test-" + uuid.NewString()
	code, _, _ = runCmd("", "sem", "open", "-mode", "open-or-create", "-initial", "3", missing)
	if a.Equal(exitOK, code) {
		defer runCmd("", "sem", "rm", missing)
		code, stdout, _ = runCmd("", "sem", "value", missing)
		a.Equal(exitOK, code)
		a.Equal("3\n", stdout)
	}
}
