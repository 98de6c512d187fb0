// Package store persists the engine's model and its training progress.
//
// A ModelRepository holds exactly one named model record; saving overwrites
// it. A ProgressLog keeps a capped history of training snapshots and evicts
// the oldest entries first. Every backend in this package implements both.
package store

import (
	"context"
	"io"

	"github.com/pkg/errors"

	"goldennet/internal/metrics"
	"goldennet/internal/model"
)

// ModelRepository saves and loads the persisted model.
type ModelRepository interface {
	Save(ctx context.Context, m *model.Model) error
	// Load returns model.ErrNotFound when nothing has been saved.
	Load(ctx context.Context) (*model.Model, error)
	Delete(ctx context.Context) error
}

// ProgressLog stores training progress snapshots.
type ProgressLog interface {
	Append(ctx context.Context, s metrics.Snapshot) error
	// Snapshots returns the stored snapshots, oldest first.
	Snapshots(ctx context.Context) ([]metrics.Snapshot, error)
	Clear(ctx context.Context) error
}

// Store is a backend implementing both interfaces.
type Store interface {
	ModelRepository
	ProgressLog
	io.Closer
}

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// DefaultModelName is the name of the single model record.
const DefaultModelName = "goldennet_model"

// Config selects and configures a backend.
type Config struct {
	Backend string `yaml:"backend"`
	// Path is a directory for the file backend and a database file for sqlite.
	Path        string `yaml:"path"`
	ProgressCap int    `yaml:"progress_cap"`
}

// Open builds the backend named by cfg.Backend.
func Open(cfg Config) (Store, error) {
	switch cfg.Backend {
	case BackendFile:
		return NewFileStore(cfg.Path, cfg.ProgressCap)
	case BackendSQLite:
		return NewSQLiteStore(cfg.Path, DefaultModelName, cfg.ProgressCap)
	case BackendMemory, "":
		return NewMemoryStore(cfg.ProgressCap), nil
	}
	return nil, errors.Errorf("store: unknown backend %q", cfg.Backend)
}
