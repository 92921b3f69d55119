package media

import (
	"bytes"
	"errors"
	"image"
	"os"

	"github.com/apadua/MeTransfer/internal/gallery"
	"github.com/apadua/MeTransfer/internal/logging"
	"github.com/apadua/MeTransfer/internal/metrics"
	"github.com/apadua/MeTransfer/internal/token"

	"github.com/disintegration/imaging"
)

// Social-preview cards use the fixed Open Graph aspect; sources are
// center-cropped to fill, never letterboxed.
const (
	previewWidth  = 1200
	previewHeight = 630
)

// SocialPreview returns the cached preview card for a gallery, generating
// it on first request. The gallery's background is preferred as the source;
// otherwise the first decodable original in listing order is used. The
// cache is evicted by the store whenever the background is replaced, so a
// new background always wins; original-file churn is acceptable staleness.
//
// Returns ErrNotFound when the gallery has neither a background nor any
// original files, and ErrNotImage when sources exist but none decode.
func (g *Generator) SocialPreview(id string) ([]byte, error) {
	if !token.Valid(id) {
		return nil, gallery.ErrInvalidID
	}

	cachePath := g.store.PreviewPath(id)

	if data, err := os.ReadFile(cachePath); err == nil {
		logging.Debug("preview cache hit: %s", id)
		return data, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if data, err := os.ReadFile(cachePath); err == nil {
		return data, nil
	}

	img, err := g.previewSource(id)
	if err != nil {
		return nil, err
	}

	card := imaging.Fill(img, previewWidth, previewHeight, imaging.Center, imaging.Lanczos)
	data, err := encodeJPEG(card)
	if err != nil {
		return nil, err
	}

	g.writeCache(cachePath, data)
	metrics.PreviewsGeneratedTotal.Inc()
	return data, nil
}

// previewSource picks and decodes the image the preview is derived from.
func (g *Generator) previewSource(id string) (image.Image, error) {
	if bg, err := g.store.ReadBackground(id); err == nil {
		img, err := decodeImage(bytes.NewReader(bg))
		if err == nil {
			return img, nil
		}
		logging.Warn("stored background for %s does not decode: %v", id, err)
	} else if !errors.Is(err, gallery.ErrNotFound) {
		return nil, err
	}

	names, err := g.store.ListOriginals(id)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, gallery.ErrNotFound
	}

	for _, name := range names {
		src, err := g.store.OpenOriginal(id, name)
		if err != nil {
			continue
		}
		img, err := decodeImage(src)
		src.Close()
		if err == nil {
			return img, nil
		}
		logging.Debug("preview source %s/%s does not decode, trying next", id, name)
	}
	return nil, gallery.ErrNotImage
}
