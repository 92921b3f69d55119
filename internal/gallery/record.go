package gallery

import "time"

// DefaultName is the placeholder display name for galleries created without
// one, and for records the reconciler synthesizes from bare directories.
const DefaultName = "Untitled gallery"

// MaxNameLength bounds the display name on rename.
const MaxNameLength = 200

// Record describes one gallery in the metadata index.
//
// ID is immutable and always a valid token. FileNames is a cache of the
// uploads directory listing; the directory is authoritative and the
// reconciler resolves any divergence. HasBackground is recomputed from disk
// and never persisted.
type Record struct {
	ID            string    `json:"id"`
	DisplayName   string    `json:"displayName"`
	CreatedAt     time.Time `json:"createdAt"`
	FileNames     []string  `json:"fileNames"`
	HasBackground bool      `json:"-"`
}
