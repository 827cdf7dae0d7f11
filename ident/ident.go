// Copyright 2016 Aleksandr Demakin. All rights reserved.

// Package ident generates names for named objects.
package ident

import (
	"encoding/binary"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	ipc "github.com/nxgtw/interprocess"
)

const (
	base62Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	hashLen        = 11
	uidLen         = 8
	randomLen      = 8
)

// Base62 encodes value into exactly width base62 digits, most significant first.
// Digits, that do not fit into width, are dropped.
func Base62(value uint64, width int) string {
	if width <= 0 {
		return ""
	}
	result := make([]byte, width)
	for i := width - 1; i >= 0; i-- {
		result[i] = base62Alphabet[value%62]
		value /= 62
	}
	return string(result)
}

// Hash returns an 11-character base62 hash of s.
// It can be used to derive a valid object name from an arbitrary string.
func Hash(s string) string {
	return Base62(xxhash.Sum64String(s), hashLen)
}

// UID returns a base62 timestamp of t with centisecond resolution.
// Digits of later times are greater in the a-zA-Z0-9 alphabet order,
// which is not the byte order, so UIDs must not be compared as plain strings.
func UID(t time.Time) string {
	centis := uint64(t.Unix())*100 + uint64(t.Nanosecond()/int(10*time.Millisecond))
	return Base62(centis, uidLen)
}

// NewName returns a new unique object name with the given prefix.
// The name starts with '/' and is followed by prefix, a timestamp and random characters.
func NewName(prefix string) (string, error) {
	id := uuid.New()
	name := "/" + prefix + UID(time.Now()) + Base62(binary.BigEndian.Uint64(id[:8]), randomLen)
	if err := ipc.ValidateName(name); err != nil {
		return "", err
	}
	return name, nil
}
