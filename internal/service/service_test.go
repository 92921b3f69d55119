package service

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apadua/MeTransfer/internal/gallery"
	"github.com/apadua/MeTransfer/internal/index"
	"github.com/apadua/MeTransfer/internal/media"
	"github.com/apadua/MeTransfer/internal/storage"
)

type fixture struct {
	dataDir string
	store   *storage.Store
	index   *index.Index
	svc     *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dataDir := t.TempDir()
	store, err := storage.New(dataDir)
	require.NoError(t, err)
	idx, err := index.New(dataDir)
	require.NoError(t, err)
	gen := media.NewGenerator(store, 100)
	return &fixture{
		dataDir: dataDir,
		store:   store,
		index:   idx,
		svc:     New(store, idx, gen, 800),
	}
}

func makeJPEG(t *testing.T, w, h int, tint uint8) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: tint, G: uint8(x % 256), B: uint8(y % 256), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func uploads(names ...string) []Upload {
	out := make([]Upload, 0, len(names))
	for _, name := range names {
		out = append(out, Upload{Filename: name, Content: strings.NewReader("payload-" + name)})
	}
	return out
}

func TestCreateGallery(t *testing.T) {
	f := newFixture(t)

	rec, err := f.svc.CreateGallery(uploads("one.jpg", "two.png"))
	require.NoError(t, err)
	assert.Equal(t, gallery.DefaultName, rec.DisplayName)
	assert.Equal(t, []string{"one.jpg", "two.png"}, rec.FileNames)
	assert.False(t, rec.CreatedAt.IsZero())

	// Record persisted and files on disk.
	got, err := f.index.Get(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.FileNames, got.FileNames)

	names, err := f.store.ListOriginals(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"one.jpg", "two.png"}, names)
}

func TestCreateGalleryZeroFiles(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateGallery(nil)
	assert.ErrorIs(t, err, gallery.ErrEmptyGallery)

	// No record persists and no directory exists under uploads.
	assert.Empty(t, f.index.All())
	entries, readErr := os.ReadDir(filepath.Join(f.dataDir, "uploads"))
	if readErr == nil {
		assert.Empty(t, entries)
	} else {
		assert.True(t, os.IsNotExist(readErr))
	}
}

func TestCreateGalleryAllFilesRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateGallery(uploads("malware.exe", "notes.txt"))
	assert.ErrorIs(t, err, gallery.ErrUnsupportedMedia)
	assert.Empty(t, f.index.All())
}

func TestCreateGalleryMixedFiles(t *testing.T) {
	f := newFixture(t)

	rec, err := f.svc.CreateGallery(uploads("good.jpg", "bad.exe"))
	require.NoError(t, err, "one stored file is enough")
	assert.Equal(t, []string{"good.jpg"}, rec.FileNames)
}

func TestAddPhotos(t *testing.T) {
	f := newFixture(t)
	rec, err := f.svc.CreateGallery(uploads("one.jpg"))
	require.NoError(t, err)

	updated, err := f.svc.AddPhotos(rec.ID, uploads("two.jpg", "one.jpg"))
	require.NoError(t, err)
	// Re-uploading an existing name overwrites the file, not the list.
	assert.Equal(t, []string{"one.jpg", "two.jpg"}, updated.FileNames)
}

func TestAddPhotosMissingGallery(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.AddPhotos(f.store.NewGalleryID(), uploads("a.jpg"))
	assert.ErrorIs(t, err, gallery.ErrNotFound)
}

func TestRename(t *testing.T) {
	f := newFixture(t)
	rec, err := f.svc.CreateGallery(uploads("a.jpg"))
	require.NoError(t, err)

	renamed, err := f.svc.Rename(rec.ID, "  Vacation 2026  ")
	require.NoError(t, err)
	assert.Equal(t, "Vacation 2026", renamed.DisplayName)

	long := strings.Repeat("x", gallery.MaxNameLength+50)
	renamed, err = f.svc.Rename(rec.ID, long)
	require.NoError(t, err)
	assert.Len(t, renamed.DisplayName, gallery.MaxNameLength)

	renamed, err = f.svc.Rename(rec.ID, "   ")
	require.NoError(t, err)
	assert.Equal(t, gallery.DefaultName, renamed.DisplayName)
}

func TestRenameInvalidID(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Rename("nope", "x")
	assert.ErrorIs(t, err, gallery.ErrInvalidID)
}

func TestSetBackgroundInvalidatesPreview(t *testing.T) {
	f := newFixture(t)
	rec, err := f.svc.CreateGallery([]Upload{{
		Filename: "photo.jpg",
		Content:  bytes.NewReader(makeJPEG(t, 400, 400, 0)),
	}})
	require.NoError(t, err)

	require.NoError(t, f.svc.SetBackground(rec.ID, makeJPEG(t, 900, 600, 10)))
	firstPreview, err := f.svc.Generator().SocialPreview(rec.ID)
	require.NoError(t, err)

	// Replace the background: the cached preview must be regenerated from
	// the new image, not served stale.
	require.NoError(t, f.svc.SetBackground(rec.ID, makeJPEG(t, 900, 600, 250)))
	secondPreview, err := f.svc.Generator().SocialPreview(rec.ID)
	require.NoError(t, err)

	assert.NotEqual(t, firstPreview, secondPreview,
		"preview still served from stale cache after background replacement")
}

func TestSetBackgroundAtomicOnBadImage(t *testing.T) {
	f := newFixture(t)
	rec, err := f.svc.CreateGallery(uploads("a.jpg"))
	require.NoError(t, err)

	require.NoError(t, f.svc.SetBackground(rec.ID, makeJPEG(t, 600, 400, 33)))
	before, err := f.store.ReadBackground(rec.ID)
	require.NoError(t, err)

	err = f.svc.SetBackground(rec.ID, []byte("definitely not an image"))
	assert.ErrorIs(t, err, gallery.ErrNotImage)

	after, readErr := f.store.ReadBackground(rec.ID)
	require.NoError(t, readErr)
	assert.Equal(t, before, after, "failed replacement must leave the prior background intact")
}

func TestDeleteGallery(t *testing.T) {
	f := newFixture(t)
	rec, err := f.svc.CreateGallery([]Upload{{
		Filename: "photo.jpg",
		Content:  bytes.NewReader(makeJPEG(t, 300, 300, 0)),
	}})
	require.NoError(t, err)

	require.NoError(t, f.svc.SetBackground(rec.ID, makeJPEG(t, 600, 300, 90)))
	_, err = f.svc.Generator().SocialPreview(rec.ID)
	require.NoError(t, err)
	_, err = f.svc.Generator().Thumbnail(rec.ID, "photo.jpg")
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(rec.ID))

	// All four artifact slots gone.
	for _, path := range []string{
		f.store.OriginalPath(rec.ID, "photo.jpg"),
		f.store.ThumbnailPath(rec.ID, "photo.jpg"),
		f.store.BackgroundPath(rec.ID),
		f.store.PreviewPath(rec.ID),
	} {
		_, statErr := os.Stat(path)
		assert.True(t, os.IsNotExist(statErr), "%s survived deletion", path)
	}

	_, err = f.index.Get(rec.ID)
	assert.ErrorIs(t, err, gallery.ErrNotFound)

	// A reconciliation pass must not resurrect the entry.
	require.NoError(t, f.svc.Reconcile())
	_, err = f.index.Get(rec.ID)
	assert.ErrorIs(t, err, gallery.ErrNotFound)
}

func TestDeleteMissing(t *testing.T) {
	f := newFixture(t)
	err := f.svc.Delete(f.store.NewGalleryID())
	assert.ErrorIs(t, err, gallery.ErrNotFound)
}

func TestGetRefreshesFromDisk(t *testing.T) {
	f := newFixture(t)
	rec, err := f.svc.CreateGallery(uploads("a.jpg"))
	require.NoError(t, err)

	// A file added out-of-band shows up; the index cache does not mask it.
	_, err = f.store.WriteOriginal(rec.ID, "b.jpg", strings.NewReader("x"))
	require.NoError(t, err)

	got, err := f.svc.Get(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, got.FileNames)
	assert.False(t, got.HasBackground)

	require.NoError(t, f.svc.SetBackground(rec.ID, makeJPEG(t, 300, 200, 0)))
	got, err = f.svc.Get(rec.ID)
	require.NoError(t, err)
	assert.True(t, got.HasBackground)
}
