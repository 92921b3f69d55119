// Package token generates and validates the opaque gallery identifiers.
//
// An identifier doubles as a filesystem path component, so validation is the
// sole defense against path traversal and must run before any path is built
// from an untrusted string.
package token

import (
	"github.com/google/uuid"
)

// New returns a fresh random identifier in canonical form.
func New() string {
	return uuid.NewString()
}

// Valid reports whether s is a well-formed identifier: the 36-character
// hyphenated textual form of a version-4 RFC 4122 UUID, case-insensitive.
//
// uuid.Parse alone is not enough: it also accepts braced, URN-prefixed, and
// unhyphenated forms, none of which may ever reach the filesystem. The
// canonical shape is checked character by character first.
func Valid(s string) bool {
	if len(s) != 36 {
		return false
	}
	for i := 0; i < 36; i++ {
		c := s[i]
		switch i {
		case 8, 13, 18, 23:
			if c != '-' {
				return false
			}
		default:
			if !isHex(c) {
				return false
			}
		}
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return false
	}
	return u.Version() == 4 && u.Variant() == uuid.RFC4122
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
