package media

import (
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/apadua/MeTransfer/internal/gallery"
	"github.com/apadua/MeTransfer/internal/logging"
	"github.com/apadua/MeTransfer/internal/metrics"
	"github.com/apadua/MeTransfer/internal/storage"
	"github.com/apadua/MeTransfer/internal/token"

	"github.com/disintegration/imaging"
)

// Generator produces and caches derived images for one artifact store.
type Generator struct {
	store      *storage.Store
	thumbWidth int
	mu         sync.Mutex
}

// NewGenerator returns a Generator writing thumbnails at the given target
// width.
func NewGenerator(store *storage.Store, thumbWidth int) *Generator {
	return &Generator{
		store:      store,
		thumbWidth: thumbWidth,
	}
}

// Thumbnail returns the cached thumbnail for (id, filename), generating it
// on first request. Generation resizes the original to the fixed target
// width, preserving aspect ratio. The second call for the same pair reads
// the cache and performs no decode.
//
// A non-image or corrupt original yields ErrNotImage; callers serve the
// original bytes instead of failing the request.
func (g *Generator) Thumbnail(id, filename string) ([]byte, error) {
	// Both parts of the cache key are untrusted lookup input; reject them
	// before any path is built from either.
	if !token.Valid(id) {
		return nil, gallery.ErrInvalidID
	}
	if !storage.ValidFilename(filename) {
		return nil, gallery.ErrInvalidFilename
	}

	cachePath := g.store.ThumbnailPath(id, filename)

	if data, err := os.ReadFile(cachePath); err == nil {
		logging.Debug("thumbnail cache hit: %s/%s", id, filename)
		return data, nil
	}

	// One generation at a time; concurrent requests for the same file are
	// rare and a duplicate decode is wasted work worth a mutex.
	g.mu.Lock()
	defer g.mu.Unlock()

	if data, err := os.ReadFile(cachePath); err == nil {
		return data, nil
	}

	src, err := g.store.OpenOriginal(id, filename)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	logging.Debug("thumbnail generating: %s/%s", id, filename)

	img, err := decodeImage(src)
	if err != nil {
		return nil, err
	}

	thumb := imaging.Resize(img, g.thumbWidth, 0, imaging.Lanczos)
	data, err := encodeJPEG(thumb)
	if err != nil {
		return nil, err
	}

	g.writeCache(cachePath, data)
	metrics.ThumbnailsGeneratedTotal.Inc()
	return data, nil
}

// writeCache stores a derivative, tolerating failure: a derivative that
// could not be cached is still served and will be regenerated next time.
func (g *Generator) writeCache(path string, data []byte) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		logging.Warn("failed to create cache dir for %s: %v", path, err)
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		logging.Warn("failed to cache derivative %s: %v", path, err)
		return
	}
	logging.Debug("derivative cached: %s", path)
}

// FallbackToOriginal reports whether a thumbnail failure should degrade to
// serving the original file unmodified. Identifier and filename rejections
// propagate as-is; generation problems degrade because thumbnailing is an
// optimization, never a delivery requirement.
func FallbackToOriginal(err error) bool {
	return errors.Is(err, gallery.ErrNotImage) || errors.Is(err, gallery.ErrStorage)
}
