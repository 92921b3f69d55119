package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/apadua/MeTransfer/internal/gallery"
	"github.com/apadua/MeTransfer/internal/logging"
	"github.com/apadua/MeTransfer/internal/token"
)

const (
	uploadsDirName     = "uploads"
	thumbnailsDirName  = "thumbnails"
	backgroundsDirName = "backgrounds"
	previewCacheName   = "og-cache"
)

// Store provides access to all gallery artifacts under one data root.
type Store struct {
	root string
}

// New creates a Store rooted at dataDir, creating the root if needed.
// Per-gallery directories are created lazily on first write.
func New(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating data root: %v", gallery.ErrStorage, err)
	}
	return &Store{root: dataDir}, nil
}

// Root returns the data root path.
func (s *Store) Root() string {
	return s.root
}

// NewGalleryID allocates a fresh identifier. No directory is created; a
// gallery only comes into existence on its first stored file, so an
// allocation abandoned after an empty upload leaves no trace.
func (s *Store) NewGalleryID() string {
	return token.New()
}

func (s *Store) uploadsDir(id string) string {
	return filepath.Join(s.root, uploadsDirName, id)
}

func (s *Store) thumbnailsDir(id string) string {
	return filepath.Join(s.root, thumbnailsDirName, id)
}

// OriginalPath returns the on-disk path of an original file. Both the
// identifier and the filename must already be validated.
func (s *Store) OriginalPath(id, filename string) string {
	return filepath.Join(s.uploadsDir(id), filename)
}

// ThumbnailPath returns the cache path for a file's thumbnail.
func (s *Store) ThumbnailPath(id, filename string) string {
	return filepath.Join(s.thumbnailsDir(id), filename+".jpg")
}

// BackgroundPath returns the path of the normalized background image.
func (s *Store) BackgroundPath(id string) string {
	return filepath.Join(s.root, backgroundsDirName, id+".jpg")
}

// PreviewPath returns the cache path for the social-preview image.
func (s *Store) PreviewPath(id string) string {
	return filepath.Join(s.root, previewCacheName, id+".jpg")
}

// WriteOriginal sanitizes rawFilename, stores the content, and returns the
// stored name. The gallery's uploads directory is created on demand;
// creating an already-existing directory is not an error, so concurrent
// uploads to one gallery do not conflict here. The metadata index is not
// touched; recording the name is the caller's job.
func (s *Store) WriteOriginal(id, rawFilename string, content io.Reader) (string, error) {
	if !token.Valid(id) {
		return "", gallery.ErrInvalidID
	}

	name := SanitizeFilename(rawFilename)
	dir := s.uploadsDir(id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: creating gallery dir: %v", gallery.ErrStorage, err)
	}

	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("%w: creating %s: %v", gallery.ErrStorage, name, err)
	}
	if _, err := io.Copy(dst, content); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", fmt.Errorf("%w: writing %s: %v", gallery.ErrStorage, name, err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("%w: closing %s: %v", gallery.ErrStorage, name, err)
	}
	return name, nil
}

// ListOriginals returns the filenames physically present in a gallery's
// uploads directory, sorted, with hidden entries and subdirectories
// filtered out. This listing is authoritative; the index caches it.
func (s *Store) ListOriginals(id string) ([]string, error) {
	if !token.Valid(id) {
		return nil, gallery.ErrInvalidID
	}

	entries, err := os.ReadDir(s.uploadsDir(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, gallery.ErrNotFound
		}
		return nil, fmt.Errorf("%w: listing gallery %s: %v", gallery.ErrStorage, id, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || len(e.Name()) == 0 || e.Name()[0] == '.' {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// OpenOriginal opens an original file for reading. The filename is a lookup
// key from an untrusted path segment and is rejected, not rewritten, when
// malformed.
func (s *Store) OpenOriginal(id, filename string) (*os.File, error) {
	if !token.Valid(id) {
		return nil, gallery.ErrInvalidID
	}
	if !ValidFilename(filename) {
		return nil, gallery.ErrInvalidFilename
	}

	f, err := os.Open(s.OriginalPath(id, filename))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, gallery.ErrNotFound
		}
		return nil, fmt.Errorf("%w: opening %s/%s: %v", gallery.ErrStorage, id, filename, err)
	}
	return f, nil
}

// ReadOriginal returns an original file's bytes.
func (s *Store) ReadOriginal(id, filename string) ([]byte, error) {
	f, err := s.OpenOriginal(id, filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s/%s: %v", gallery.ErrStorage, id, filename, err)
	}
	return data, nil
}

// GalleryExists reports whether a gallery has a backing uploads directory.
func (s *Store) GalleryExists(id string) bool {
	if !token.Valid(id) {
		return false
	}
	info, err := os.Stat(s.uploadsDir(id))
	return err == nil && info.IsDir()
}

// GalleryDir describes one directory under the uploads tree.
type GalleryDir struct {
	ID      string
	ModTime time.Time
}

// ListGalleryDirs returns every uploads subdirectory whose name is a valid
// identifier, with the directory's modification time standing in for its
// creation time. Entries with invalid names are skipped (and logged), never
// deleted; they are not ours to manage.
func (s *Store) ListGalleryDirs() ([]GalleryDir, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, uploadsDirName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: listing uploads tree: %v", gallery.ErrStorage, err)
	}

	dirs := make([]GalleryDir, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if !token.Valid(e.Name()) {
			logging.Warn("uploads tree contains non-gallery directory %q, ignoring", e.Name())
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		dirs = append(dirs, GalleryDir{ID: e.Name(), ModTime: info.ModTime()})
	}
	return dirs, nil
}

// DeleteGallery removes all four artifact slots for a gallery. Each removal
// tolerates the slot already being absent.
func (s *Store) DeleteGallery(id string) error {
	if !token.Valid(id) {
		return gallery.ErrInvalidID
	}

	var firstErr error
	for _, dir := range []string{s.uploadsDir(id), s.thumbnailsDir(id)} {
		if err := os.RemoveAll(dir); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, file := range []string{s.BackgroundPath(id), s.PreviewPath(id)} {
		if err := os.Remove(file); err != nil && !errors.Is(err, os.ErrNotExist) && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return fmt.Errorf("%w: deleting gallery %s: %v", gallery.ErrStorage, id, firstErr)
	}
	return nil
}

// writeFileAtomic writes data to path via a temp file and rename, creating
// the parent directory as needed. Concurrent readers never observe a
// partial file.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}

// WriteBackground stores an already-normalized background JPEG. The cached
// social preview may derive from the old background, so it is evicted first
// and an eviction failure aborts the replacement; a new background is never
// published alongside a preview generated from the old one. On any failure
// the previous background and preview both remain intact.
func (s *Store) WriteBackground(id string, jpegData []byte) error {
	if !token.Valid(id) {
		return gallery.ErrInvalidID
	}

	if err := os.Remove(s.PreviewPath(id)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: evicting preview for %s: %v", gallery.ErrStorage, id, err)
	}

	if err := writeFileAtomic(s.BackgroundPath(id), jpegData); err != nil {
		return fmt.Errorf("%w: writing background for %s: %v", gallery.ErrStorage, id, err)
	}
	return nil
}

// ReadBackground returns the normalized background for a gallery.
func (s *Store) ReadBackground(id string) ([]byte, error) {
	if !token.Valid(id) {
		return nil, gallery.ErrInvalidID
	}

	data, err := os.ReadFile(s.BackgroundPath(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, gallery.ErrNotFound
		}
		return nil, fmt.Errorf("%w: reading background for %s: %v", gallery.ErrStorage, id, err)
	}
	return data, nil
}

// HasBackground reports whether a gallery has a stored background.
func (s *Store) HasBackground(id string) bool {
	if !token.Valid(id) {
		return false
	}
	_, err := os.Stat(s.BackgroundPath(id))
	return err == nil
}
