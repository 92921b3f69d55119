package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"github.com/gorilla/mux"

	"github.com/apadua/MeTransfer/internal/gallery"
	"github.com/apadua/MeTransfer/internal/logging"
	"github.com/apadua/MeTransfer/internal/metrics"
	"github.com/apadua/MeTransfer/internal/service"
)

// multipartMemory is the in-memory threshold for parsed multipart bodies;
// larger parts spill to temp files so upload memory stays bounded.
const multipartMemory = 32 << 20

// parseUploads parses the multipart body and returns the uploaded files
// under the "files" field (with "file" accepted for single-file requests).
// The returned cleanup must run after the files are consumed.
func (h *Handlers) parseUploads(w http.ResponseWriter, r *http.Request) ([]*multipart.FileHeader, func(), error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, func() {}, gallery.ErrTooLarge
		}
		// A body that fails to parse within the size limit is a client
		// fault, not a server one.
		return nil, func() {}, fmt.Errorf("%w: %v", errMalformedBody, err)
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		files = r.MultipartForm.File["file"]
	}
	cleanup := func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			logging.Warn("failed to remove multipart temp files: %v", err)
		}
	}
	return files, cleanup, nil
}

func openUploads(files []*multipart.FileHeader) ([]service.Upload, func(), error) {
	uploads := make([]service.Upload, 0, len(files))
	var opened []multipart.File
	closeAll := func() {
		for _, f := range opened {
			f.Close()
		}
	}
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		opened = append(opened, f)
		uploads = append(uploads, service.Upload{Filename: fh.Filename, Content: f})
	}
	return uploads, closeAll, nil
}

// CreateGallery handles POST /api/galleries: a multipart upload that must
// yield at least one stored file, or no gallery comes into existence.
func (h *Handlers) CreateGallery(w http.ResponseWriter, r *http.Request) {
	files, cleanup, err := h.parseUploads(w, r)
	if err != nil {
		writeDomainError(w, "create gallery", err)
		return
	}
	defer cleanup()

	uploads, closeAll, err := openUploads(files)
	if err != nil {
		writeDomainError(w, "create gallery", err)
		return
	}
	defer closeAll()

	rec, err := h.svc.CreateGallery(uploads)
	if err != nil {
		writeDomainError(w, "create gallery", err)
		return
	}
	metrics.UploadsTotal.Add(float64(len(rec.FileNames)))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, h.galleryResponse(rec))
}

// AddPhotos handles POST /api/galleries/{id}/photos.
func (h *Handlers) AddPhotos(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	files, cleanup, err := h.parseUploads(w, r)
	if err != nil {
		writeDomainError(w, "add photos", err)
		return
	}
	defer cleanup()

	uploads, closeAll, err := openUploads(files)
	if err != nil {
		writeDomainError(w, "add photos", err)
		return
	}
	defer closeAll()

	rec, err := h.svc.AddPhotos(id, uploads)
	if err != nil {
		writeDomainError(w, "add photos", err)
		return
	}
	metrics.UploadsTotal.Add(float64(len(uploads)))

	writeJSON(w, h.galleryResponse(rec))
}

// RenameGallery handles PUT /api/galleries/{id}/name with body
// {"displayName": "..."}.
func (h *Handlers) RenameGallery(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var body struct {
		DisplayName string `json:"displayName"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, 4096)).Decode(&body); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	rec, err := h.svc.Rename(id, body.DisplayName)
	if err != nil {
		writeDomainError(w, "rename gallery", err)
		return
	}
	writeJSON(w, h.galleryResponse(rec))
}

// SetBackground handles POST /api/galleries/{id}/background.
func (h *Handlers) SetBackground(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	files, cleanup, err := h.parseUploads(w, r)
	if err != nil {
		writeDomainError(w, "set background", err)
		return
	}
	defer cleanup()

	if len(files) == 0 {
		writeJSONError(w, "an image file is required", http.StatusBadRequest)
		return
	}
	f, err := files[0].Open()
	if err != nil {
		writeDomainError(w, "set background", err)
		return
	}
	data, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		writeDomainError(w, "set background", err)
		return
	}

	if err := h.svc.SetBackground(id, data); err != nil {
		// An upload that does not decode is a client problem, not a
		// degraded-delivery case.
		if errors.Is(err, gallery.ErrNotImage) {
			writeJSONError(w, "file is not a decodable image", http.StatusUnsupportedMediaType)
			return
		}
		writeDomainError(w, "set background", err)
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

// ListGalleries handles GET /api/galleries: reconcile, then the full table.
func (h *Handlers) ListGalleries(w http.ResponseWriter, _ *http.Request) {
	records, err := h.svc.List()
	if err != nil {
		writeDomainError(w, "list galleries", err)
		return
	}
	metrics.ReconcileRunsTotal.Inc()

	out := make([]galleryResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, h.galleryResponse(rec))
	}
	writeJSON(w, out)
}

// DeleteGallery handles DELETE /api/galleries/{id}.
func (h *Handlers) DeleteGallery(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.svc.Delete(id); err != nil {
		writeDomainError(w, "delete gallery", err)
		return
	}
	metrics.GalleriesDeletedTotal.Inc()
	writeJSON(w, map[string]string{"status": "deleted"})
}

// SetLogo handles POST /api/logo: the process-wide logo override.
func (h *Handlers) SetLogo(w http.ResponseWriter, r *http.Request) {
	files, cleanup, err := h.parseUploads(w, r)
	if err != nil {
		writeDomainError(w, "set logo", err)
		return
	}
	defer cleanup()

	if len(files) == 0 {
		writeJSONError(w, "a logo file is required", http.StatusBadRequest)
		return
	}
	f, err := files[0].Open()
	if err != nil {
		writeDomainError(w, "set logo", err)
		return
	}
	data, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		writeDomainError(w, "set logo", err)
		return
	}

	ext := filepath.Ext(files[0].Filename)
	if err := h.svc.Store().WriteLogo(data, ext); err != nil {
		writeDomainError(w, "set logo", err)
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

// ClearLogo handles DELETE /api/logo, restoring the bundled default.
func (h *Handlers) ClearLogo(w http.ResponseWriter, _ *http.Request) {
	if err := h.svc.Store().ClearLogo(); err != nil {
		writeDomainError(w, "clear logo", err)
		return
	}
	writeJSON(w, map[string]string{"status": "cleared"})
}
