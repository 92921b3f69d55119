package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/apadua/MeTransfer/internal/gallery"
	"github.com/apadua/MeTransfer/internal/logging"
)

// writeJSON encodes v as JSON and writes it to the response writer. Any
// encoding or write errors are logged since we typically cannot recover
// from them in an HTTP handler context.
func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}

// errMalformedBody marks a request body that could not be parsed. Unlike
// the domain sentinels it never crosses package boundaries.
var errMalformedBody = errors.New("malformed request body")

// writeJSONError writes an error response as JSON with the given status code.
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		logging.Error("failed to encode JSON error response: %v", err)
	}
}

// writeDomainError maps a domain error to an HTTP response. Validation
// failures and NotFound carry their own statuses; everything else is a
// storage-class failure whose detail is logged server-side and never
// crosses the boundary.
func writeDomainError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, gallery.ErrInvalidID):
		writeJSONError(w, "invalid gallery identifier", http.StatusBadRequest)
	case errors.Is(err, gallery.ErrInvalidFilename):
		writeJSONError(w, "invalid filename", http.StatusBadRequest)
	case errors.Is(err, errMalformedBody):
		writeJSONError(w, "malformed request body", http.StatusBadRequest)
	case errors.Is(err, gallery.ErrEmptyGallery):
		writeJSONError(w, "at least one image file is required", http.StatusBadRequest)
	case errors.Is(err, gallery.ErrNotFound):
		writeJSONError(w, "not found", http.StatusNotFound)
	case errors.Is(err, gallery.ErrTooLarge):
		writeJSONError(w, "payload too large", http.StatusRequestEntityTooLarge)
	case errors.Is(err, gallery.ErrUnsupportedMedia):
		writeJSONError(w, "unsupported media type", http.StatusUnsupportedMediaType)
	default:
		logging.Error("%s: %v", op, err)
		writeJSONError(w, "internal error", http.StatusInternalServerError)
	}
}
