// Copyright 2016 Aleksandr Demakin. All rights reserved.

package interprocess

import (
	"strings"

	"github.com/pkg/errors"
)

const (
	// MaxNameLen is the maximum length of an object name without the leading slash.
	// It is NAME_MAX minus one byte, which is reserved for a type suffix or prefix
	// on some systems.
	MaxNameLen = 254
)

// ValidateName checks, that the name can be used as a name of a shared object.
// A valid name is an optional '/' followed by 1..MaxNameLen bytes,
// which contain neither '/' nor NUL, and which are not "." or "..".
func ValidateName(name string) error {
	_, err := CanonicalName(name)
	return err
}

// CanonicalName returns a name without the leading slash.
// "/a" and "a" have the same canonical name "a".
func CanonicalName(name string) (string, error) {
	base := strings.TrimPrefix(name, "/")
	switch {
	case len(base) == 0:
		return "", NewError("validate", name, ErrInvalidName, errors.New("empty name"))
	case len(base) > MaxNameLen:
		return "", NewError("validate", name, ErrInvalidName, errors.Errorf("name is longer than %d bytes", MaxNameLen))
	case strings.ContainsAny(base, "/\x00"):
		return "", NewError("validate", name, ErrInvalidName, errors.New("name must not contain '/' or NUL after the first symbol"))
	case base == "." || base == "..":
		return "", NewError("validate", name, ErrInvalidName, errors.Errorf("%q is a reserved name", base))
	}
	return base, nil
}
