package gallery

import "errors"

// Sentinel errors shared across the storage, index, and derivative layers.
// Handlers map these onto HTTP statuses; anything wrapped in ErrStorage is
// logged in full server-side and surfaced to clients as an opaque failure.
var (
	// ErrInvalidID is returned when an identifier does not match the token
	// grammar. Rejected before any filesystem path is built from it.
	ErrInvalidID = errors.New("invalid gallery identifier")

	// ErrInvalidFilename is returned when a filename arriving as a lookup
	// key contains characters outside the safe set. Lookup paths never
	// rewrite names; uploads do.
	ErrInvalidFilename = errors.New("invalid filename")

	// ErrNotFound is returned when a gallery, file, background, or preview
	// source is absent. It is an expected outcome on public endpoints and
	// is not logged as an error.
	ErrNotFound = errors.New("not found")

	// ErrTooLarge is returned when an upload exceeds the configured byte
	// ceiling.
	ErrTooLarge = errors.New("payload too large")

	// ErrUnsupportedMedia is returned when an upload's extension is outside
	// the accepted image set.
	ErrUnsupportedMedia = errors.New("unsupported media type")

	// ErrStorage wraps I/O failures that are not otherwise classified.
	ErrStorage = errors.New("storage failure")

	// ErrNotImage is returned when derivative generation cannot decode a
	// source file. Callers serve the original bytes instead.
	ErrNotImage = errors.New("not a decodable image")

	// ErrEmptyGallery is returned when a gallery creation yields zero
	// stored files; no record persists and no directory is created.
	ErrEmptyGallery = errors.New("gallery has no files")
)
