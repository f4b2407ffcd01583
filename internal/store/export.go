package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Export sources.
const (
	SourceAPI  = "api"
	SourceTray = "tray"
)

// Export records one PNG export of the drawing surface.
type Export struct {
	ID        string    `json:"id"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Bytes     int       `json:"bytes"`
	Path      string    `json:"path,omitempty"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// ExportRepository records exports.
type ExportRepository struct {
	db *sql.DB
}

// Exports returns the export repository for this store.
func (s *Store) Exports() *ExportRepository {
	return &ExportRepository{db: s.db}
}

// Create inserts e, assigning an ID and timestamp when they are empty.
func (r *ExportRepository) Create(e *Export) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	if e.Source == "" {
		e.Source = SourceAPI
	}

	_, err := r.db.Exec(
		`INSERT INTO exports (id, width, height, bytes, path, source, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Width, e.Height, e.Bytes, e.Path, e.Source, e.CreatedAt,
	)
	return err
}

// Get retrieves an export by ID.
func (r *ExportRepository) Get(id string) (*Export, error) {
	e := &Export{}
	err := r.db.QueryRow(
		`SELECT id, width, height, bytes, path, source, created_at
		 FROM exports WHERE id = ?`,
		id,
	).Scan(&e.ID, &e.Width, &e.Height, &e.Bytes, &e.Path, &e.Source, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

// List returns up to limit exports, newest first. A non-positive limit
// returns all of them.
func (r *ExportRepository) List(limit int) ([]*Export, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.Query(
		`SELECT id, width, height, bytes, path, source, created_at
		 FROM exports ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	exports := []*Export{}
	for rows.Next() {
		e := &Export{}
		if err := rows.Scan(&e.ID, &e.Width, &e.Height, &e.Bytes, &e.Path, &e.Source, &e.CreatedAt); err != nil {
			return nil, err
		}
		exports = append(exports, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return exports, nil
}

// Count returns the number of recorded exports.
func (r *ExportRepository) Count() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM exports`).Scan(&n)
	return n, err
}
