// Package index maintains the persisted metadata table of gallery records.
//
// The table is held in memory and rewritten to a single JSON file on every
// mutation. The file is a cache of filesystem truth: the reconciler rebuilds
// it from the uploads tree, so a lost or corrupt file costs display names at
// worst, never gallery content.
package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/apadua/MeTransfer/internal/gallery"
	"github.com/apadua/MeTransfer/internal/logging"
)

// FileName is the index file's name under the data root.
const FileName = "galleries.json"

// Index is the in-memory gallery table backed by a JSON file. All methods
// are safe for concurrent use; mutations persist before returning, so a
// crash after a response never loses that response's effect. Concurrent
// mutations serialize on one mutex and the last write wins.
type Index struct {
	path string

	mu      sync.Mutex
	records []*gallery.Record
	byID    map[string]*gallery.Record
}

// New creates an index persisted at filepath.Join(dataDir, FileName) and
// loads any existing file. A missing file yields an empty table; a corrupt
// file is logged and treated as empty rather than failing startup, since
// the reconciler restores it from disk truth.
func New(dataDir string) (*Index, error) {
	idx := &Index{
		path: filepath.Join(dataDir, FileName),
		byID: make(map[string]*gallery.Record),
	}
	if err := idx.load(); err != nil {
		return nil, err
	}
	return idx, nil
}

func (idx *Index) load() error {
	data, err := os.ReadFile(idx.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%w: reading index: %v", gallery.ErrStorage, err)
	}

	var records []*gallery.Record
	if err := json.Unmarshal(data, &records); err != nil {
		logging.Error("index file %s is corrupt (%v), starting with empty table", idx.path, err)
		return nil
	}

	for _, rec := range records {
		if _, dup := idx.byID[rec.ID]; dup {
			logging.Warn("index contains duplicate record for %s, keeping first", rec.ID)
			continue
		}
		idx.records = append(idx.records, rec)
		idx.byID[rec.ID] = rec
	}
	logging.Info("loaded %d gallery record(s) from %s", len(idx.records), idx.path)
	return nil
}

// saveLocked rewrites the index file atomically. Callers hold idx.mu.
func (idx *Index) saveLocked() error {
	data, err := json.MarshalIndent(idx.records, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encoding index: %v", gallery.ErrStorage, err)
	}

	dir := filepath.Dir(idx.path)
	tmp, err := os.CreateTemp(dir, ".galleries-*.json")
	if err != nil {
		return fmt.Errorf("%w: creating temp index: %v", gallery.ErrStorage, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: writing temp index: %v", gallery.ErrStorage, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: closing temp index: %v", gallery.ErrStorage, err)
	}
	if err := os.Rename(tmp.Name(), idx.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: replacing index: %v", gallery.ErrStorage, err)
	}
	return nil
}

// Get returns a copy of the record for id, or ErrNotFound.
func (idx *Index) Get(id string) (gallery.Record, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	rec, ok := idx.byID[id]
	if !ok {
		return gallery.Record{}, gallery.ErrNotFound
	}
	return copyRecord(rec), nil
}

// Put inserts or replaces a record and persists the table. Insertion order
// is preserved for existing records.
func (idx *Index) Put(rec gallery.Record) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	stored := copyRecordPtr(&rec)
	if existing, ok := idx.byID[rec.ID]; ok {
		*existing = *stored
	} else {
		idx.records = append(idx.records, stored)
		idx.byID[rec.ID] = stored
	}
	return idx.saveLocked()
}

// Remove deletes a record and persists the table. Removing an absent record
// is a no-op with no write.
func (idx *Index) Remove(id string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, ok := idx.byID[id]; !ok {
		return nil
	}
	delete(idx.byID, id)
	for i, rec := range idx.records {
		if rec.ID == id {
			idx.records = append(idx.records[:i], idx.records[i+1:]...)
			break
		}
	}
	return idx.saveLocked()
}

// All returns copies of every record in insertion order.
func (idx *Index) All() []gallery.Record {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	out := make([]gallery.Record, 0, len(idx.records))
	for _, rec := range idx.records {
		out = append(out, copyRecord(rec))
	}
	return out
}

// Replace swaps the whole table in one mutation and persists it once. The
// reconciler uses this so a full pass costs a single write regardless of
// how many entries changed.
func (idx *Index) Replace(records []gallery.Record) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.records = idx.records[:0]
	idx.byID = make(map[string]*gallery.Record, len(records))
	for i := range records {
		stored := copyRecordPtr(&records[i])
		idx.records = append(idx.records, stored)
		idx.byID[stored.ID] = stored
	}
	return idx.saveLocked()
}

// Path returns the index file location.
func (idx *Index) Path() string {
	return idx.path
}

func copyRecord(rec *gallery.Record) gallery.Record {
	out := *rec
	out.FileNames = append([]string(nil), rec.FileNames...)
	return out
}

func copyRecordPtr(rec *gallery.Record) *gallery.Record {
	out := copyRecord(rec)
	return &out
}
