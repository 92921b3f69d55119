// Package storage owns the on-disk layout of gallery artifacts.
//
// Everything lives under a single data root:
//
//	uploads/<id>/<filename>     original files (authoritative)
//	thumbnails/<id>/<file>.jpg  cached thumbnails
//	backgrounds/<id>.jpg        normalized background image
//	og-cache/<id>.jpg           cached social-preview image
//	logo.<ext>                  process-wide logo override
//
// The uploads tree is the source of truth for which galleries and files
// exist; the metadata index defers to it. Every operation validates the
// identifier (and, on read paths, the filename) before building a path.
package storage
