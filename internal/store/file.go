package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"goldennet/internal/metrics"
	"goldennet/internal/model"
)

const (
	modelFileName    = "model.json"
	progressFileName = "progress.json"
)

// DirPermMode is the permission used when creating the store directory.
var DirPermMode = os.FileMode(0o755)

// FileStore keeps the model and the progress log as JSON files in a directory.
// Writes go to a temporary file first and are renamed into place.
type FileStore struct {
	mu          sync.Mutex
	dir         string
	progressCap int
}

// NewFileStore creates dir if needed.
func NewFileStore(dir string, progressCap int) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("store: file backend requires a directory")
	}
	fi, err := os.Stat(dir)
	if err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "failed to os.Stat(%q)", dir)
	}
	if err == nil && !fi.IsDir() {
		return nil, errors.Errorf("store path %q exists but it's a normal file, not a directory", dir)
	}
	if err != nil {
		if err := os.MkdirAll(dir, DirPermMode); err != nil {
			return nil, errors.Wrapf(err, "trying to create dir %q", dir)
		}
	}
	if progressCap <= 0 {
		progressCap = metrics.DefaultRingCap
	}
	return &FileStore{dir: dir, progressCap: progressCap}, nil
}

// Dir returns the directory holding the files.
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) Save(_ context.Context, m *model.Model) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeJSON(modelFileName, m)
}

func (s *FileStore) Load(_ context.Context) (*model.Model, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var m model.Model
	if err := s.readJSON(modelFileName, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *FileStore) Delete(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remove(modelFileName)
}

func (s *FileStore) Append(_ context.Context, snap metrics.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snaps, err := s.readSnapshots()
	if err != nil {
		return err
	}
	ring := metrics.NewRing(s.progressCap)
	for _, old := range snaps {
		ring.Append(old)
	}
	ring.Append(snap)
	return s.writeJSON(progressFileName, ring.Snapshots())
}

func (s *FileStore) Snapshots(_ context.Context) ([]metrics.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readSnapshots()
}

func (s *FileStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remove(progressFileName)
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) readSnapshots() ([]metrics.Snapshot, error) {
	var snaps []metrics.Snapshot
	err := s.readJSON(progressFileName, &snaps)
	if errors.Is(err, model.ErrNotFound) {
		return nil, nil
	}
	return snaps, err
}

func (s *FileStore) readJSON(name string, v any) error {
	path := filepath.Join(s.dir, name)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return errors.Wrapf(model.ErrNotFound, "no %s in %q", name, s.dir)
	}
	if err != nil {
		return errors.Wrapf(err, "failed to read %q", path)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrapf(err, "failed to parse %q", path)
	}
	return nil
}

func (s *FileStore) writeJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "failed to encode %s", name)
	}
	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return errors.Wrapf(err, "failed to create temporary file in %q", s.dir)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "failed to write %q", tmp.Name())
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "failed to close %q", tmp.Name())
	}
	path := filepath.Join(s.dir, name)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrapf(err, "failed to move %s into place", name)
	}
	return nil
}

func (s *FileStore) remove(name string) error {
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "failed to remove %s", name)
	}
	return nil
}
