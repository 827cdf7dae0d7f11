// Copyright 2016 Aleksandr Demakin. All rights reserved.

package ident

import (
	"strings"
	"testing"
	"time"

	ipc "github.com/nxgtw/interprocess"
	"github.com/stretchr/testify/assert"
)

func TestBase62(t *testing.T) {
	a := assert.New(t)
	a.Equal("aaaa", Base62(0, 4))
	a.Equal("aaab", Base62(1, 4))
	a.Equal("aaa9", Base62(61, 4))
	a.Equal("aaba", Base62(62, 4))
	a.Equal("ba", Base62(62, 2))
	// high digits are dropped.
	a.Equal("a", Base62(62, 1))
	a.Equal("", Base62(100, 0))
}

func TestHash(t *testing.T) {
	a := assert.New(t)
	h := Hash("some string")
	a.Len(h, 11)
	a.Equal(h, Hash("some string"))
	a.NotEqual(h, Hash("some string2"))
	a.NoError(ipc.ValidateName(h))
}

func TestUID(t *testing.T) {
	a := assert.New(t)
	t1 := time.Unix(1700000000, 0)
	t2 := t1.Add(10 * time.Millisecond)
	a.Len(UID(t1), 8)
	a.NotEqual(UID(t1), UID(t2))
	a.Equal(UID(t1), UID(t1.Add(9*time.Millisecond)))
	// digit order differs from byte order.
	a.Equal("z", Base62(25, 1))
	a.Equal("A", Base62(26, 1))
	a.Less(Base62(26, 1), Base62(25, 1))
}

func TestNewName(t *testing.T) {
	a := assert.New(t)
	n1, err := NewName("jobs-")
	a.NoError(err)
	n2, err := NewName("jobs-")
	a.NoError(err)
	a.NotEqual(n1, n2)
	a.True(strings.HasPrefix(n1, "/jobs-"))
	a.NoError(ipc.ValidateName(n1))
	_, err = NewName("a/b")
	a.ErrorIs(err, ipc.ErrInvalidName)
}
