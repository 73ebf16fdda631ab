package knowledge

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// snapshotVersion is the on-disk format version. Bump when the layout
// changes so old readers fail loudly instead of misparsing.
const snapshotVersion = 1

// snapshotFile is the on-disk representation of a collection: the
// ordered document list and enough framing to detect corruption.
// Derived scorer state is never persisted; it is rebuilt on load.
type snapshotFile struct {
	Version    int      `json:"version"`
	Collection string   `json:"collection"`
	Documents  []string `json:"documents"`
}

// snapshot manages the durable copy of one collection. Every mutation
// rewrites the whole file; there is no incremental log. Writes go to a
// temp file in the same directory followed by a rename, so a crash
// mid-write leaves the previous snapshot intact. A sidecar flock
// serializes access across processes.
type snapshot struct {
	path string
	lock *flock.Flock
}

// newSnapshot creates a snapshot rooted at dir for the named collection.
func newSnapshot(dir, collection string) *snapshot {
	path := filepath.Join(dir, collection+".json")
	return &snapshot{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// write replaces the snapshot with the given document list.
func (s *snapshot) write(collection string, docs []string) error {
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("acquiring snapshot lock: %w", err)
	}
	defer func() { _ = s.lock.Unlock() }()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("creating snapshot directory: %w", err)
	}

	data, err := json.Marshal(snapshotFile{
		Version:    snapshotVersion,
		Collection: collection,
		Documents:  docs,
	})
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp snapshot: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("closing snapshot: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replacing snapshot: %w", err)
	}
	return nil
}

// load reads the snapshot back. A missing file returns (nil, nil); a
// garbled or mismatched file returns an error the caller is expected to
// log and treat as an empty collection.
func (s *snapshot) load(collection string) ([]string, error) {
	if err := s.lock.Lock(); err != nil {
		return nil, fmt.Errorf("acquiring snapshot lock: %w", err)
	}
	defer func() { _ = s.lock.Unlock() }()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var file snapshotFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decoding snapshot %s: %w", s.path, err)
	}
	if file.Version != snapshotVersion {
		return nil, fmt.Errorf("snapshot %s: unsupported version %d", s.path, file.Version)
	}
	if file.Collection != collection {
		return nil, fmt.Errorf("snapshot %s: collection mismatch (%q, want %q)",
			s.path, file.Collection, collection)
	}
	return file.Documents, nil
}

// remove deletes the snapshot file. Missing files are not an error.
func (s *snapshot) remove() error {
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("acquiring snapshot lock: %w", err)
	}
	defer func() { _ = s.lock.Unlock() }()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing snapshot: %w", err)
	}
	return nil
}
