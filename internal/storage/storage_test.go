package storage

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/apadua/MeTransfer/internal/gallery"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestWriteReadOriginalRoundTrip(t *testing.T) {
	s := newTestStore(t)
	id := s.NewGalleryID()

	payload := []byte("not really a jpeg but bytes are bytes")
	name, err := s.WriteOriginal(id, "shot 01.jpg", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("WriteOriginal: %v", err)
	}
	if name != "shot_01.jpg" {
		t.Errorf("stored name = %q, want %q", name, "shot_01.jpg")
	}

	got, err := s.ReadOriginal(id, name)
	if err != nil {
		t.Fatalf("ReadOriginal: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("round-trip mismatch: got %d bytes, want %d", len(got), len(payload))
	}
}

func TestInvalidIDNeverTouchesFilesystem(t *testing.T) {
	dataDir := t.TempDir()
	s, err := New(dataDir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	badIDs := []string{"", "..", "../../etc", "not-a-token", "9b2edd6d-3a18-1c33-a45f-4d7fb9f4c3aa"}
	for _, id := range badIDs {
		if _, err := s.WriteOriginal(id, "a.jpg", bytes.NewReader([]byte("x"))); !errors.Is(err, gallery.ErrInvalidID) {
			t.Errorf("WriteOriginal(%q) error = %v, want ErrInvalidID", id, err)
		}
		if _, err := s.ListOriginals(id); !errors.Is(err, gallery.ErrInvalidID) {
			t.Errorf("ListOriginals(%q) error = %v, want ErrInvalidID", id, err)
		}
		if err := s.DeleteGallery(id); !errors.Is(err, gallery.ErrInvalidID) {
			t.Errorf("DeleteGallery(%q) error = %v, want ErrInvalidID", id, err)
		}
	}

	// Nothing may have been created for any rejected identifier.
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("data root not empty after rejected operations: %v", entries)
	}
}

func TestListOriginalsFiltersHiddenAndDirs(t *testing.T) {
	s := newTestStore(t)
	id := s.NewGalleryID()

	for _, name := range []string{"b.jpg", "a.jpg"} {
		if _, err := s.WriteOriginal(id, name, bytes.NewReader([]byte("x"))); err != nil {
			t.Fatalf("WriteOriginal(%s): %v", name, err)
		}
	}
	// Out-of-band noise: a hidden file and a subdirectory.
	dir := filepath.Join(s.Root(), "uploads", id)
	if err := os.WriteFile(filepath.Join(dir, ".DS_Store"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}

	names, err := s.ListOriginals(id)
	if err != nil {
		t.Fatalf("ListOriginals: %v", err)
	}
	want := []string{"a.jpg", "b.jpg"}
	if len(names) != len(want) {
		t.Fatalf("ListOriginals = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("ListOriginals[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestListOriginalsMissingGallery(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.ListOriginals(s.NewGalleryID()); !errors.Is(err, gallery.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestOpenOriginalRejectsBadFilenames(t *testing.T) {
	s := newTestStore(t)
	id := s.NewGalleryID()
	if _, err := s.WriteOriginal(id, "a.jpg", bytes.NewReader([]byte("x"))); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"", "..", "../a.jpg", "sub/a.jpg", ".hidden"} {
		if _, err := s.OpenOriginal(id, name); !errors.Is(err, gallery.ErrInvalidFilename) {
			t.Errorf("OpenOriginal(%q) error = %v, want ErrInvalidFilename", name, err)
		}
	}
}

func TestDeleteGalleryRemovesAllSlots(t *testing.T) {
	s := newTestStore(t)
	id := s.NewGalleryID()

	if _, err := s.WriteOriginal(id, "a.jpg", bytes.NewReader([]byte("x"))); err != nil {
		t.Fatal(err)
	}
	if err := s.WriteBackground(id, []byte("bg")); err != nil {
		t.Fatal(err)
	}
	// Simulate cached derivatives.
	if err := os.MkdirAll(filepath.Dir(s.ThumbnailPath(id, "a.jpg")), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(s.ThumbnailPath(id, "a.jpg"), []byte("t"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Dir(s.PreviewPath(id)), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(s.PreviewPath(id), []byte("p"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := s.DeleteGallery(id); err != nil {
		t.Fatalf("DeleteGallery: %v", err)
	}

	for _, path := range []string{
		s.OriginalPath(id, "a.jpg"),
		s.ThumbnailPath(id, "a.jpg"),
		s.BackgroundPath(id),
		s.PreviewPath(id),
	} {
		if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("%s still exists after delete", path)
		}
	}

	// Deleting again is fine: every slot removal tolerates absence.
	if err := s.DeleteGallery(id); err != nil {
		t.Errorf("second DeleteGallery: %v", err)
	}
}

func TestWriteBackgroundEvictsPreview(t *testing.T) {
	s := newTestStore(t)
	id := s.NewGalleryID()

	if err := os.MkdirAll(filepath.Dir(s.PreviewPath(id)), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(s.PreviewPath(id), []byte("stale"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := s.WriteBackground(id, []byte("new background")); err != nil {
		t.Fatalf("WriteBackground: %v", err)
	}

	if _, err := os.Stat(s.PreviewPath(id)); !errors.Is(err, os.ErrNotExist) {
		t.Error("preview cache not evicted after background replacement")
	}
	got, err := s.ReadBackground(id)
	if err != nil {
		t.Fatalf("ReadBackground: %v", err)
	}
	if string(got) != "new background" {
		t.Errorf("ReadBackground = %q", got)
	}
}

func TestReadBackgroundMissing(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.ReadBackground(s.NewGalleryID()); !errors.Is(err, gallery.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestLogoOverrideLifecycle(t *testing.T) {
	s := newTestStore(t)

	if _, _, err := s.ReadLogo(); !errors.Is(err, gallery.ErrNotFound) {
		t.Fatalf("ReadLogo on empty store: %v, want ErrNotFound", err)
	}

	if err := s.WriteLogo([]byte("png bytes"), ".png"); err != nil {
		t.Fatalf("WriteLogo: %v", err)
	}
	data, ext, err := s.ReadLogo()
	if err != nil {
		t.Fatalf("ReadLogo: %v", err)
	}
	if ext != "png" || string(data) != "png bytes" {
		t.Errorf("ReadLogo = %q/%q", data, ext)
	}

	// Replacing with a different extension removes the old file.
	if err := s.WriteLogo([]byte("svg bytes"), "svg"); err != nil {
		t.Fatalf("WriteLogo(svg): %v", err)
	}
	data, ext, err = s.ReadLogo()
	if err != nil {
		t.Fatalf("ReadLogo after replace: %v", err)
	}
	if ext != "svg" || string(data) != "svg bytes" {
		t.Errorf("ReadLogo after replace = %q/%q", data, ext)
	}

	if err := s.WriteLogo([]byte("x"), ".exe"); !errors.Is(err, gallery.ErrUnsupportedMedia) {
		t.Errorf("WriteLogo(.exe) error = %v, want ErrUnsupportedMedia", err)
	}

	if err := s.ClearLogo(); err != nil {
		t.Fatalf("ClearLogo: %v", err)
	}
	if _, _, err := s.ReadLogo(); !errors.Is(err, gallery.ErrNotFound) {
		t.Errorf("ReadLogo after clear: %v, want ErrNotFound", err)
	}
}

func TestListGalleryDirsSkipsForeignEntries(t *testing.T) {
	s := newTestStore(t)
	id := s.NewGalleryID()
	if _, err := s.WriteOriginal(id, "a.jpg", bytes.NewReader([]byte("x"))); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(s.Root(), "uploads", "not-a-token"), 0o755); err != nil {
		t.Fatal(err)
	}

	dirs, err := s.ListGalleryDirs()
	if err != nil {
		t.Fatalf("ListGalleryDirs: %v", err)
	}
	if len(dirs) != 1 || dirs[0].ID != id {
		t.Errorf("ListGalleryDirs = %+v, want single entry %s", dirs, id)
	}
	if dirs[0].ModTime.IsZero() {
		t.Error("ModTime not populated")
	}
}
