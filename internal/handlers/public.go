package handlers

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/apadua/MeTransfer/internal/gallery"
	"github.com/apadua/MeTransfer/internal/logging"
	"github.com/apadua/MeTransfer/internal/media"
	"github.com/apadua/MeTransfer/internal/metrics"
)

type photoResponse struct {
	Name         string `json:"name"`
	PhotoURL     string `json:"photoUrl"`
	ThumbnailURL string `json:"thumbnailUrl"`
	DownloadURL  string `json:"downloadUrl"`
}

type galleryResponse struct {
	ID            string          `json:"id"`
	DisplayName   string          `json:"displayName"`
	CreatedAt     time.Time       `json:"createdAt"`
	HasBackground bool            `json:"hasBackground"`
	Photos        []photoResponse `json:"photos"`
	ZipURL        string          `json:"zipUrl"`
	PreviewURL    string          `json:"previewUrl"`
}

func (h *Handlers) galleryResponse(rec gallery.Record) galleryResponse {
	out := galleryResponse{
		ID:            rec.ID,
		DisplayName:   rec.DisplayName,
		CreatedAt:     rec.CreatedAt,
		HasBackground: rec.HasBackground,
		Photos:        make([]photoResponse, 0, len(rec.FileNames)),
		ZipURL:        fmt.Sprintf("/download/%s.zip", rec.ID),
		PreviewURL:    fmt.Sprintf("/preview/%s.jpg", rec.ID),
	}
	for _, name := range rec.FileNames {
		out.Photos = append(out.Photos, photoResponse{
			Name:         name,
			PhotoURL:     fmt.Sprintf("/photos/%s/%s", rec.ID, name),
			ThumbnailURL: fmt.Sprintf("/thumbnails/%s/%s", rec.ID, name),
			DownloadURL:  fmt.Sprintf("/download/%s/%s", rec.ID, name),
		})
	}
	return out
}

// GetGallery handles GET /api/galleries/{id}/photos: the public listing a
// recipient's page is built from. The file list comes from the
// authoritative directory listing.
func (h *Handlers) GetGallery(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	rec, err := h.svc.Get(id)
	if err != nil {
		writeDomainError(w, "get gallery", err)
		return
	}
	writeJSON(w, h.galleryResponse(rec))
}

func contentTypeFor(name string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// servePhoto writes an original file, optionally as an attachment.
func (h *Handlers) servePhoto(w http.ResponseWriter, r *http.Request, attachment bool) {
	vars := mux.Vars(r)
	id, name := vars["id"], vars["file"]

	f, err := h.svc.Store().OpenOriginal(id, name)
	if err != nil {
		writeDomainError(w, "serve photo", err)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		writeDomainError(w, "serve photo", err)
		return
	}

	w.Header().Set("Content-Type", contentTypeFor(name))
	if attachment {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	} else {
		w.Header().Set("Cache-Control", "public, max-age=86400")
	}
	http.ServeContent(w, r, name, info.ModTime(), f)
}

// GetPhoto handles GET /photos/{id}/{file}.
func (h *Handlers) GetPhoto(w http.ResponseWriter, r *http.Request) {
	h.servePhoto(w, r, false)
}

// DownloadPhoto handles GET /download/{id}/{file} with forced attachment.
func (h *Handlers) DownloadPhoto(w http.ResponseWriter, r *http.Request) {
	h.servePhoto(w, r, true)
}

// GetThumbnail handles GET /thumbnails/{id}/{file}. Thumbnailing is
// best-effort: when the original cannot be decoded the original bytes are
// served unmodified instead of erroring.
func (h *Handlers) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, name := vars["id"], vars["file"]

	thumb, err := h.generator.Thumbnail(id, name)
	if err != nil {
		if media.FallbackToOriginal(err) {
			logging.Debug("thumbnail fallback for %s/%s: %v", id, name, err)
			h.servePhoto(w, r, false)
			return
		}
		writeDomainError(w, "thumbnail", err)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if _, err := w.Write(thumb); err != nil {
		logging.Debug("thumbnail write aborted for %s/%s: %v", id, name, err)
	}
}

// GetPreview handles GET /preview/{id}.jpg, the social-preview card.
func (h *Handlers) GetPreview(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	data, err := h.generator.SocialPreview(id)
	if err != nil {
		// No decodable source means no card; consumers omit the preview.
		if errors.Is(err, gallery.ErrNotImage) {
			writeJSONError(w, "not found", http.StatusNotFound)
			return
		}
		writeDomainError(w, "social preview", err)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if _, err := w.Write(data); err != nil {
		logging.Debug("preview write aborted for %s: %v", id, err)
	}
}

// DownloadZip handles GET /download/{id}.zip, streaming the whole gallery.
func (h *Handlers) DownloadZip(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	// Resolve the listing before committing response headers so an empty
	// or missing gallery still gets a clean 404.
	names, err := h.svc.Store().ListOriginals(id)
	if err != nil {
		writeDomainError(w, "download zip", err)
		return
	}
	if len(names) == 0 {
		writeJSONError(w, "not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", id+".zip"))

	if err := h.streamer.StreamZip(r.Context(), id, w); err != nil {
		// Headers are gone; all we can do is cut the stream so the client
		// sees a broken archive instead of a quietly incomplete one.
		metrics.ArchivesStreamedTotal.WithLabelValues("aborted").Inc()
		if errors.Is(err, r.Context().Err()) && r.Context().Err() != nil {
			logging.Debug("zip download abandoned for %s", id)
			return
		}
		logging.Error("zip stream failed for %s: %v", id, err)
		panic(http.ErrAbortHandler)
	}
	metrics.ArchivesStreamedTotal.WithLabelValues("complete").Inc()
}

// GetLogo handles GET /logo: the override when present, the bundled
// default otherwise.
func (h *Handlers) GetLogo(w http.ResponseWriter, r *http.Request) {
	data, ext, err := h.svc.Store().ReadLogo()
	if err != nil {
		if errors.Is(err, gallery.ErrNotFound) {
			http.ServeFile(w, r, filepath.Join("static", "logo-default.svg"))
			return
		}
		writeDomainError(w, "logo", err)
		return
	}

	w.Header().Set("Content-Type", contentTypeFor("logo."+ext))
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if _, err := w.Write(data); err != nil {
		logging.Debug("logo write aborted: %v", err)
	}
}
