package service

import (
	"github.com/apadua/MeTransfer/internal/gallery"
	"github.com/apadua/MeTransfer/internal/logging"
)

// Reconcile makes the metadata index consistent with the uploads tree. The
// filesystem is authoritative: index entries whose directory vanished are
// dropped, and directories with no entry get a synthesized record
// (placeholder name, directory timestamp, current listing). The table is
// persisted at most once per pass, and a pass over an already-consistent
// tree writes nothing.
//
// Runs at startup and before every full listing, so out-of-band filesystem
// changes become visible without a restart.
func (s *Service) Reconcile() error {
	dirs, err := s.store.ListGalleryDirs()
	if err != nil {
		return err
	}
	onDisk := make(map[string]bool, len(dirs))
	for _, d := range dirs {
		onDisk[d.ID] = true
	}

	changed := false
	var next []gallery.Record

	// Pass 1: drop stale entries.
	indexed := make(map[string]bool)
	for _, rec := range s.index.All() {
		indexed[rec.ID] = true
		if !onDisk[rec.ID] {
			logging.Info("reconcile: dropping stale record %s", rec.ID)
			changed = true
			continue
		}
		next = append(next, rec)
	}

	// Pass 2: synthesize records for unindexed directories.
	for _, d := range dirs {
		if indexed[d.ID] {
			continue
		}
		names, err := s.store.ListOriginals(d.ID)
		if err != nil {
			logging.Warn("reconcile: cannot list %s: %v", d.ID, err)
			continue
		}
		logging.Info("reconcile: adopting directory %s (%d files)", d.ID, len(names))
		next = append(next, gallery.Record{
			ID:          d.ID,
			DisplayName: gallery.DefaultName,
			CreatedAt:   d.ModTime,
			FileNames:   names,
		})
		changed = true
	}

	if !changed {
		return nil
	}
	return s.index.Replace(next)
}
