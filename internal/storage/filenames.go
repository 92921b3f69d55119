package storage

import (
	"path/filepath"
	"strings"
)

// safeFilenameChar reports whether c may appear in a stored filename.
func safeFilenameChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z':
		return true
	case c >= 'A' && c <= 'Z':
		return true
	case c >= '0' && c <= '9':
		return true
	case c == '.' || c == '-' || c == '_':
		return true
	}
	return false
}

// SanitizeFilename rewrites a user-supplied upload name into the safe
// character class. Path components are stripped, disallowed characters
// become underscores, and a leading dot is replaced so the stored file is
// never hidden from listings. Uploads are renamed, never rejected, on this
// path.
func SanitizeFilename(raw string) string {
	name := filepath.Base(strings.ReplaceAll(raw, "\\", "/"))
	if name == "." || name == ".." || name == "" {
		return "file"
	}

	b := []byte(name)
	for i := range b {
		if !safeFilenameChar(b[i]) {
			b[i] = '_'
		}
	}
	if b[0] == '.' {
		b[0] = '_'
	}
	return string(b)
}

// ValidFilename reports whether a filename arriving as a lookup key is
// acceptable as-is. Read paths never rewrite names; anything outside the
// safe class, or dot-prefixed, is an error so that no traversal sequence
// can reach the filesystem.
func ValidFilename(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if name[0] == '.' {
		return false
	}
	for i := 0; i < len(name); i++ {
		if !safeFilenameChar(name[i]) {
			return false
		}
	}
	return true
}
