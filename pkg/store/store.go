// Package store keeps the history of analysis runs in a local SQLite file.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/angelica-ignateva/collaborative-dashboard-datateam/pkg/analytics"
)

// ErrNotFound is returned when no run is recorded for a model.
var ErrNotFound = errors.New("no runs recorded")

// Run is one analysis of one model version.
type Run struct {
	ID        string            `json:"id"`
	Model     string            `json:"model"`
	ProjectID string            `json:"project_id"`
	ModelID   string            `json:"model_id"`
	VersionID string            `json:"version_id"`
	ObjectID  string            `json:"object_id"`
	Author    string            `json:"author,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	Result    *analytics.Result `json:"result"`
}

// Store manages the run history database.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Open creates or opens the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db, dbPath: path}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing store schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

func (s *Store) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		model TEXT NOT NULL,
		project_id TEXT NOT NULL,
		model_id TEXT NOT NULL,
		version_id TEXT NOT NULL,
		object_id TEXT NOT NULL,
		author TEXT,
		created_at INTEGER NOT NULL,
		result_json TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_model_created ON runs(model, created_at);

	CREATE TABLE IF NOT EXISTS category_totals (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		category TEXT NOT NULL,
		material TEXT,
		element_count INTEGER NOT NULL,
		total_volume REAL NOT NULL,
		total_mass REAL NOT NULL,
		total_embodied_carbon REAL NOT NULL,
		PRIMARY KEY (run_id, category)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Save records a run. An empty ID is filled with a new UUID and a zero
// CreatedAt with the current time.
func (s *Store) Save(ctx context.Context, r *Run) error {
	if r.Result == nil {
		return errors.New("saving run: result is nil")
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	body, err := json.Marshal(r.Result)
	if err != nil {
		return fmt.Errorf("encoding run result: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, model, project_id, model_id, version_id, object_id, author, created_at, result_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Model, r.ProjectID, r.ModelID, r.VersionID, r.ObjectID, r.Author, r.CreatedAt.UnixNano(), string(body))
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}
	for _, row := range r.Result.Rows {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO category_totals (run_id, category, material, element_count, total_volume, total_mass, total_embodied_carbon)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			r.ID, row.Category, row.Material, row.ElementCount, row.TotalVolume, row.TotalMass, row.TotalEmbodiedCarbon)
		if err != nil {
			return fmt.Errorf("inserting totals for %s: %w", row.Category, err)
		}
	}
	return tx.Commit()
}

// Latest returns the most recent run of a model, or ErrNotFound.
func (s *Store) Latest(ctx context.Context, model string) (*Run, error) {
	runs, err := s.History(ctx, model, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("%s: %w", model, ErrNotFound)
	}
	return &runs[0], nil
}

// History returns up to limit runs of a model, newest first. A limit of
// zero or less returns every run.
func (s *Store) History(ctx context.Context, model string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, model, project_id, model_id, version_id, object_id, COALESCE(author, ''), created_at, result_json
		FROM runs WHERE model = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`, model, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var (
			r       Run
			created int64
			body    string
		)
		if err := rows.Scan(&r.ID, &r.Model, &r.ProjectID, &r.ModelID, &r.VersionID, &r.ObjectID, &r.Author, &created, &body); err != nil {
			return nil, err
		}
		r.CreatedAt = time.Unix(0, created).UTC()
		r.Result = &analytics.Result{}
		if err := json.Unmarshal([]byte(body), r.Result); err != nil {
			return nil, fmt.Errorf("decoding run %s: %w", r.ID, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// CarbonTrend returns the total embodied carbon of one category across the
// runs of a model, oldest first.
func (s *Store) CarbonTrend(ctx context.Context, model, category string) ([]TrendPoint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.created_at, r.version_id, t.total_embodied_carbon
		FROM category_totals t JOIN runs r ON r.id = t.run_id
		WHERE r.model = ? AND t.category = ?
		ORDER BY r.created_at ASC`, model, category)
	if err != nil {
		return nil, fmt.Errorf("querying trend: %w", err)
	}
	defer rows.Close()

	out := []TrendPoint{}
	for rows.Next() {
		var (
			p       TrendPoint
			created int64
		)
		if err := rows.Scan(&created, &p.VersionID, &p.Carbon); err != nil {
			return nil, err
		}
		p.At = time.Unix(0, created).UTC()
		out = append(out, p)
	}
	return out, rows.Err()
}

// TrendPoint is one run's carbon total for a category.
type TrendPoint struct {
	At        time.Time `json:"at"`
	VersionID string    `json:"version_id"`
	Carbon    float64   `json:"carbon"`
}
