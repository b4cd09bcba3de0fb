package store

import (
	"database/sql"
	"errors"
	"time"
)

// Session is one run of the gesture pipeline and what it did.
type Session struct {
	ID        string     `json:"id"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	Frames    int64      `json:"frames"`
	Stamps    int64      `json:"stamps"`
	Shifts    int64      `json:"shifts"`
	Clears    int64      `json:"clears"`
}

// Counts is an increment applied to a session row.
type Counts struct {
	Frames int64
	Stamps int64
	Shifts int64
	Clears int64
}

// IsZero reports whether c adds nothing.
func (c Counts) IsZero() bool {
	return c == Counts{}
}

// SessionRepository provides access to session statistics.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// Create inserts a new session. StartedAt defaults to now.
func (r *SessionRepository) Create(sess *Session) error {
	if sess.StartedAt.IsZero() {
		sess.StartedAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO sessions (id, started_at, frames, stamps, shifts, clears)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.StartedAt, sess.Frames, sess.Stamps, sess.Shifts, sess.Clears,
	)
	return err
}

// GetByID retrieves a session by its ID.
func (r *SessionRepository) GetByID(id string) (*Session, error) {
	sess, err := scanSession(r.db.QueryRow(
		`SELECT id, started_at, ended_at, frames, stamps, shifts, clears
		 FROM sessions WHERE id = ?`,
		id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return sess, nil
}

// List returns sessions newest first. A limit of zero or less returns all.
func (r *SessionRepository) List(limit int) ([]*Session, error) {
	query := `SELECT id, started_at, ended_at, frames, stamps, shifts, clears
		 FROM sessions ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// AddCounts increments a session's counters.
func (r *SessionRepository) AddCounts(id string, c Counts) error {
	result, err := r.db.Exec(
		`UPDATE sessions SET frames = frames + ?, stamps = stamps + ?, shifts = shifts + ?, clears = clears + ?
		 WHERE id = ?`,
		c.Frames, c.Stamps, c.Shifts, c.Clears, id,
	)
	if err != nil {
		return err
	}
	return expectOne(result)
}

// End marks a session finished.
func (r *SessionRepository) End(id string, at time.Time) error {
	result, err := r.db.Exec(`UPDATE sessions SET ended_at = ? WHERE id = ?`, at, id)
	if err != nil {
		return err
	}
	return expectOne(result)
}

// Delete removes a session.
func (r *SessionRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectOne(result)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*Session, error) {
	sess := &Session{}
	var ended sql.NullTime
	err := row.Scan(&sess.ID, &sess.StartedAt, &ended, &sess.Frames, &sess.Stamps, &sess.Shifts, &sess.Clears)
	if err != nil {
		return nil, err
	}
	if ended.Valid {
		t := ended.Time
		sess.EndedAt = &t
	}
	return sess, nil
}

func expectOne(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
