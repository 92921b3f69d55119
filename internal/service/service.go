// Package service ties the store, index, and generators together into the
// gallery operations the HTTP layer exposes.
package service

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/apadua/MeTransfer/internal/gallery"
	"github.com/apadua/MeTransfer/internal/index"
	"github.com/apadua/MeTransfer/internal/logging"
	"github.com/apadua/MeTransfer/internal/media"
	"github.com/apadua/MeTransfer/internal/storage"
	"github.com/apadua/MeTransfer/internal/token"
)

// allowedExtensions is the accepted upload set. Anything else is rejected
// with ErrUnsupportedMedia before bytes hit the store.
var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// Upload is one incoming file in a create or add-photos operation.
type Upload struct {
	Filename string
	Content  io.Reader
}

// Service implements the gallery operations over an artifact store and a
// metadata index. It is passed explicitly to every consumer; there is no
// ambient global state.
type Service struct {
	store           *storage.Store
	index           *index.Index
	generator       *media.Generator
	backgroundWidth int
}

// New assembles a Service.
func New(store *storage.Store, idx *index.Index, gen *media.Generator, backgroundWidth int) *Service {
	return &Service{
		store:           store,
		index:           idx,
		generator:       gen,
		backgroundWidth: backgroundWidth,
	}
}

// Store exposes the underlying artifact store for read-path handlers.
func (s *Service) Store() *storage.Store {
	return s.store
}

// Generator exposes the derivative generator.
func (s *Service) Generator() *media.Generator {
	return s.generator
}

// Index exposes the metadata index for read-only consumers.
func (s *Service) Index() *index.Index {
	return s.index
}

// checkUpload validates one upload's name before anything is written.
func checkUpload(filename string) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return fmt.Errorf("%w: %s", gallery.ErrUnsupportedMedia, ext)
	}
	return nil
}

// CreateGallery allocates an identifier, stores the uploads, and commits a
// record. The identifier exists only in memory until the first file is
// written; if no file stores successfully the allocation is discarded, no
// record persists, and no directory was ever created.
func (s *Service) CreateGallery(uploads []Upload) (gallery.Record, error) {
	id := s.store.NewGalleryID()

	stored, err := s.writeUploads(id, uploads)
	if len(stored) == 0 {
		if err == nil {
			err = gallery.ErrEmptyGallery
		}
		// The only possible residue is an uploads dir created for a file
		// whose copy then failed; sweep it so the allocation leaves no trace.
		if s.store.GalleryExists(id) {
			if cleanupErr := s.store.DeleteGallery(id); cleanupErr != nil {
				logging.Warn("failed to discard empty gallery %s: %v", id, cleanupErr)
			}
		}
		return gallery.Record{}, err
	}

	rec := gallery.Record{
		ID:          id,
		DisplayName: gallery.DefaultName,
		CreatedAt:   time.Now().UTC(),
		FileNames:   stored,
	}
	if err := s.index.Put(rec); err != nil {
		return gallery.Record{}, err
	}
	logging.Info("gallery created: %s (%d files)", id, len(stored))
	return rec, nil
}

// AddPhotos appends uploads to an existing gallery and records the new
// names.
func (s *Service) AddPhotos(id string, uploads []Upload) (gallery.Record, error) {
	if !token.Valid(id) {
		return gallery.Record{}, gallery.ErrInvalidID
	}
	rec, err := s.getOrSynthesize(id)
	if err != nil {
		return gallery.Record{}, err
	}

	stored, err := s.writeUploads(id, uploads)
	if len(stored) == 0 && err != nil {
		return gallery.Record{}, err
	}

	known := make(map[string]bool, len(rec.FileNames))
	for _, name := range rec.FileNames {
		known[name] = true
	}
	for _, name := range stored {
		if !known[name] {
			rec.FileNames = append(rec.FileNames, name)
			known[name] = true
		}
	}
	if err := s.index.Put(rec); err != nil {
		return gallery.Record{}, err
	}
	logging.Info("gallery %s: added %d file(s)", id, len(stored))
	return rec, nil
}

// writeUploads stores each upload, skipping (and logging) individual
// failures so one bad file does not sink a batch. The stored names are
// returned; the last error is kept for the zero-success case.
func (s *Service) writeUploads(id string, uploads []Upload) ([]string, error) {
	var stored []string
	var lastErr error
	for _, up := range uploads {
		if err := checkUpload(up.Filename); err != nil {
			lastErr = err
			logging.Warn("rejecting upload %q for %s: %v", up.Filename, id, err)
			continue
		}
		name, err := s.store.WriteOriginal(id, up.Filename, up.Content)
		if err != nil {
			lastErr = err
			logging.Error("storing upload %q for %s: %v", up.Filename, id, err)
			continue
		}
		stored = append(stored, name)
	}
	return stored, lastErr
}

// Rename updates a gallery's display name.
func (s *Service) Rename(id, name string) (gallery.Record, error) {
	if !token.Valid(id) {
		return gallery.Record{}, gallery.ErrInvalidID
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = gallery.DefaultName
	}
	if len(name) > gallery.MaxNameLength {
		name = name[:gallery.MaxNameLength]
	}

	rec, err := s.getOrSynthesize(id)
	if err != nil {
		return gallery.Record{}, err
	}
	rec.DisplayName = name
	if err := s.index.Put(rec); err != nil {
		return gallery.Record{}, err
	}
	return rec, nil
}

// SetBackground normalizes and stores a gallery background. Normalization
// happens before anything touches disk, so a bad upload leaves the previous
// background and any cached preview untouched; the store evicts the preview
// cache before publishing the replacement.
func (s *Service) SetBackground(id string, data []byte) error {
	if !token.Valid(id) {
		return gallery.ErrInvalidID
	}
	if !s.store.GalleryExists(id) {
		return gallery.ErrNotFound
	}

	normalized, err := media.NormalizeBackground(data, s.backgroundWidth)
	if err != nil {
		return err
	}
	return s.store.WriteBackground(id, normalized)
}

// Delete removes a gallery's record and every backing artifact.
func (s *Service) Delete(id string) error {
	if !token.Valid(id) {
		return gallery.ErrInvalidID
	}
	if _, err := s.index.Get(id); err != nil && !s.store.GalleryExists(id) {
		return gallery.ErrNotFound
	}
	if err := s.store.DeleteGallery(id); err != nil {
		return err
	}
	if err := s.index.Remove(id); err != nil {
		return err
	}
	logging.Info("gallery deleted: %s", id)
	return nil
}

// Get returns one gallery record with its file list refreshed from the
// authoritative listing and the background flag recomputed from disk.
func (s *Service) Get(id string) (gallery.Record, error) {
	if !token.Valid(id) {
		return gallery.Record{}, gallery.ErrInvalidID
	}
	rec, err := s.getOrSynthesize(id)
	if err != nil {
		return gallery.Record{}, err
	}

	names, err := s.store.ListOriginals(id)
	if err != nil {
		return gallery.Record{}, err
	}
	rec.FileNames = names
	rec.HasBackground = s.store.HasBackground(id)
	return rec, nil
}

// getOrSynthesize reads the index record for a gallery, synthesizing one on
// the fly when the directory exists but the index has no entry (the same
// self-healing the reconciler does in bulk).
func (s *Service) getOrSynthesize(id string) (gallery.Record, error) {
	rec, err := s.index.Get(id)
	if err == nil {
		return rec, nil
	}
	names, listErr := s.store.ListOriginals(id)
	if listErr != nil {
		return gallery.Record{}, gallery.ErrNotFound
	}
	return gallery.Record{
		ID:          id,
		DisplayName: gallery.DefaultName,
		CreatedAt:   time.Now().UTC(),
		FileNames:   names,
	}, nil
}

// List reconciles the index against the uploads tree and returns every
// gallery record, background flags included.
func (s *Service) List() ([]gallery.Record, error) {
	if err := s.Reconcile(); err != nil {
		return nil, err
	}
	records := s.index.All()
	for i := range records {
		records[i].HasBackground = s.store.HasBackground(records[i].ID)
	}
	return records, nil
}
