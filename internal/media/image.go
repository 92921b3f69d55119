package media

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"io"

	"github.com/apadua/MeTransfer/internal/gallery"

	// Image format decoders
	_ "image/gif"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // WebP format support
)

// jpegQuality is the fixed encoding quality for every derivative. Photos
// are already lossy; 80 keeps thumbnails and previews small without
// visible artifacts.
const jpegQuality = 80

// decodeImage decodes an image from r, honoring EXIF orientation. A decode
// failure maps to ErrNotImage so callers can degrade to serving the
// original bytes.
func decodeImage(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", gallery.ErrNotImage, err)
	}
	return img, nil
}

// encodeJPEG renders img as a JPEG at the fixed derivative quality.
func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("%w: encoding jpeg: %v", gallery.ErrStorage, err)
	}
	return buf.Bytes(), nil
}

// NormalizeBackground re-encodes an uploaded background as a JPEG no wider
// than maxWidth, preserving aspect ratio and never upscaling. It is a pure
// transformation: on failure nothing has been written anywhere, which is
// what keeps background replacement atomic for observers.
func NormalizeBackground(data []byte, maxWidth int) ([]byte, error) {
	img, err := decodeImage(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if img.Bounds().Dx() > maxWidth {
		img = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	}
	return encodeJPEG(img)
}
