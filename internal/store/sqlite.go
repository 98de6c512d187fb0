package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"goldennet/internal/metrics"
	"goldennet/internal/model"
)

// SQLiteStore keeps the model as a JSON payload in a single named row and
// the progress log as rows trimmed to the cap on every append.
type SQLiteStore struct {
	db          *sql.DB
	dbPath      string
	name        string
	progressCap int
	mu          sync.RWMutex
}

// NewSQLiteStore opens or creates the database at dbPath.
func NewSQLiteStore(dbPath, name string, progressCap int) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, errors.New("store: sqlite backend requires a database path")
	}
	if name == "" {
		name = DefaultModelName
	}
	if progressCap <= 0 {
		progressCap = metrics.DefaultRingCap
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), DirPermMode); err != nil {
		return nil, errors.Wrap(err, "failed to create directory")
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, dbPath: dbPath, name: name, progressCap: progressCap}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to initialize schema")
	}
	return s, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.dbPath
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS models (
		name TEXT PRIMARY KEY,
		payload TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS progress (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		model TEXT NOT NULL,
		epoch INTEGER NOT NULL,
		loss REAL NOT NULL,
		learning_rate REAL NOT NULL,
		timestamp TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_progress_model ON progress(model);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Save(ctx context.Context, m *model.Model) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return errors.Wrap(err, "failed to encode model")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO models (name, payload, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		s.name, string(payload), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return errors.Wrapf(err, "failed to save model %q", s.name)
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context) (*model.Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM models WHERE name = ?`, s.name).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(model.ErrNotFound, "no model %q", s.name)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load model %q", s.name)
	}
	var m model.Model
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		return nil, errors.Wrapf(err, "failed to parse model %q", s.name)
	}
	return &m, nil
}

func (s *SQLiteStore) Delete(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM models WHERE name = ?`, s.name); err != nil {
		return errors.Wrapf(err, "failed to delete model %q", s.name)
	}
	return nil
}

func (s *SQLiteStore) Append(ctx context.Context, snap metrics.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO progress (model, epoch, loss, learning_rate, timestamp) VALUES (?, ?, ?, ?, ?)`,
		s.name, snap.Epoch, snap.Loss, snap.LearningRate, snap.Timestamp.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return errors.Wrap(err, "failed to insert progress snapshot")
	}
	_, err = tx.ExecContext(ctx, `
		DELETE FROM progress WHERE model = ? AND id NOT IN (
			SELECT id FROM progress WHERE model = ? ORDER BY id DESC LIMIT ?
		)`, s.name, s.name, s.progressCap)
	if err != nil {
		return errors.Wrap(err, "failed to evict progress snapshots")
	}
	return errors.Wrap(tx.Commit(), "failed to commit progress snapshot")
}

func (s *SQLiteStore) Snapshots(ctx context.Context) ([]metrics.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx,
		`SELECT epoch, loss, learning_rate, timestamp FROM progress WHERE model = ? ORDER BY id ASC`, s.name)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query progress")
	}
	defer rows.Close()

	var snaps []metrics.Snapshot
	for rows.Next() {
		var snap metrics.Snapshot
		var ts string
		if err := rows.Scan(&snap.Epoch, &snap.Loss, &snap.LearningRate, &ts); err != nil {
			return nil, errors.Wrap(err, "failed to scan progress row")
		}
		snap.Timestamp, err = time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, errors.Wrapf(err, "bad progress timestamp %q", ts)
		}
		snaps = append(snaps, snap)
	}
	return snaps, errors.Wrap(rows.Err(), "failed to read progress rows")
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM progress WHERE model = ?`, s.name); err != nil {
		return errors.Wrap(err, "failed to clear progress")
	}
	return nil
}
