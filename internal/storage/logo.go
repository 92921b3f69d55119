package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/apadua/MeTransfer/internal/gallery"
)

// logoExtensions lists the accepted override encodings, in the order
// ReadLogo probes for them.
var logoExtensions = []string{"png", "jpg", "jpeg", "gif", "webp", "svg"}

func (s *Store) logoPath(ext string) string {
	return filepath.Join(s.root, "logo."+ext)
}

// WriteLogo stores the process-wide logo override, replacing any previous
// override regardless of its extension.
func (s *Store) WriteLogo(data []byte, ext string) error {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	ok := false
	for _, e := range logoExtensions {
		if e == ext {
			ok = true
			break
		}
	}
	if !ok {
		return gallery.ErrUnsupportedMedia
	}

	if err := s.ClearLogo(); err != nil {
		return err
	}
	if err := writeFileAtomic(s.logoPath(ext), data); err != nil {
		return fmt.Errorf("%w: writing logo: %v", gallery.ErrStorage, err)
	}
	return nil
}

// ReadLogo returns the override logo and its extension, or ErrNotFound when
// no override exists so the caller can fall back to the bundled default.
func (s *Store) ReadLogo() ([]byte, string, error) {
	for _, ext := range logoExtensions {
		data, err := os.ReadFile(s.logoPath(ext))
		if err == nil {
			return data, ext, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, "", fmt.Errorf("%w: reading logo: %v", gallery.ErrStorage, err)
		}
	}
	return nil, "", gallery.ErrNotFound
}

// ClearLogo removes any stored override. A missing override is not an error.
func (s *Store) ClearLogo() error {
	for _, ext := range logoExtensions {
		if err := os.Remove(s.logoPath(ext)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: clearing logo: %v", gallery.ErrStorage, err)
		}
	}
	return nil
}
