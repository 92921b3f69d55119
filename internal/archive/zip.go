// Package archive streams ZIP bundles of gallery originals.
package archive

import (
	"archive/zip"
	"compress/flate"
	"context"
	"fmt"
	"io"

	"github.com/apadua/MeTransfer/internal/gallery"
	"github.com/apadua/MeTransfer/internal/logging"
	"github.com/apadua/MeTransfer/internal/storage"
)

// Streamer bundles a gallery's current originals into a ZIP byte stream.
type Streamer struct {
	store *storage.Store
}

// NewStreamer returns a Streamer reading from the given store.
func NewStreamer(store *storage.Store) *Streamer {
	return &Streamer{store: store}
}

// cancelWriter aborts writes once the request context is done, so an
// abandoned download stops the stream at the next chunk instead of
// compressing into a dead connection.
type cancelWriter struct {
	ctx context.Context
	w   io.Writer
}

func (cw *cancelWriter) Write(p []byte) (int, error) {
	if err := cw.ctx.Err(); err != nil {
		return 0, err
	}
	return cw.w.Write(p)
}

// StreamZip writes a ZIP archive of the gallery's originals to w in listing
// order. The file list comes from the authoritative directory listing, not
// the metadata index. Memory stays bounded: one source file is open at a
// time and compressed chunks go straight to the consumer.
//
// Returns ErrNotFound for a gallery with no files. Any mid-stream read
// failure aborts the archive: the central directory is never written, so
// the consumer sees a broken download rather than a silently truncated one.
func (s *Streamer) StreamZip(ctx context.Context, id string, w io.Writer) error {
	names, err := s.store.ListOriginals(id)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return gallery.ErrNotFound
	}

	zw := zip.NewWriter(&cancelWriter{ctx: ctx, w: w})
	// Photos are already compressed; trade ratio for speed.
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestSpeed)
	})

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.addFile(zw, id, name); err != nil {
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("%w: finalizing archive for %s: %v", gallery.ErrStorage, id, err)
	}
	logging.Debug("archive streamed: %s (%d files)", id, len(names))
	return nil
}

// addFile streams one original into the archive, releasing the file handle
// on every exit path.
func (s *Streamer) addFile(zw *zip.Writer, id, name string) error {
	f, err := s.store.OpenOriginal(id, name)
	if err != nil {
		// A file that vanished between listing and reading aborts the
		// stream; a partial archive must not look successful.
		return fmt.Errorf("%w: archive source %s/%s: %v", gallery.ErrStorage, id, name, err)
	}
	defer f.Close()

	hdr := &zip.FileHeader{
		Name:   name,
		Method: zip.Deflate,
	}
	if info, err := f.Stat(); err == nil {
		hdr.Modified = info.ModTime()
	}

	wr, err := zw.CreateHeader(hdr)
	if err != nil {
		return fmt.Errorf("%w: adding %s to archive: %v", gallery.ErrStorage, name, err)
	}
	if _, err := io.Copy(wr, f); err != nil {
		return fmt.Errorf("%w: streaming %s: %v", gallery.ErrStorage, name, err)
	}
	return nil
}
