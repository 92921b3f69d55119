// Package media generates derived images: per-file thumbnails, the
// social-preview card, and the normalized gallery background.
//
// Generation is best-effort and cached on disk. A source that cannot be
// decoded yields ErrNotImage so callers can fall back to serving the
// original bytes; delivery never depends on a derivative existing.
package media
