package store

import (
	"database/sql"
	"time"
)

// Notification is a stored copy of a message shown to the user.
type Notification struct {
	ID        int64     `json:"id"`
	Message   string    `json:"message"`
	Category  string    `json:"category"`
	Tool      string    `json:"tool,omitempty"`
	Accent    string    `json:"accent,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NotificationRepository keeps the notification history.
type NotificationRepository struct {
	db *sql.DB
}

// Notifications returns the notification repository for this store.
func (s *Store) Notifications() *NotificationRepository {
	return &NotificationRepository{db: s.db}
}

// Record inserts n and sets its ID.
func (r *NotificationRepository) Record(n *Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	res, err := r.db.Exec(
		`INSERT INTO notifications (message, category, tool, accent, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		n.Message, n.Category, n.Tool, n.Accent, n.CreatedAt,
	)
	if err != nil {
		return err
	}
	n.ID, err = res.LastInsertId()
	return err
}

// Recent returns up to limit notifications, newest first. An empty category
// matches all.
func (r *NotificationRepository) Recent(category string, limit int) ([]*Notification, error) {
	if limit <= 0 {
		limit = -1
	}

	query := `SELECT id, message, category, tool, accent, created_at FROM notifications`
	args := []any{}
	if category != "" {
		query += ` WHERE category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*Notification{}
	for rows.Next() {
		n := &Notification{}
		if err := rows.Scan(&n.ID, &n.Message, &n.Category, &n.Tool, &n.Accent, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Prune deletes notifications older than before and returns how many went.
func (r *NotificationRepository) Prune(before time.Time) (int64, error) {
	res, err := r.db.Exec(`DELETE FROM notifications WHERE created_at < ?`, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
