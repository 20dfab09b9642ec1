package timer

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SessionRecord is the durable form of an unlock grant on the device. The
// controller persists every grant so a daemon restart cannot silently leave
// an app unlocked past its expiry.
type SessionRecord struct {
	SessionID string
	AppRef    string
	ExpiresAt time.Time
}

// Store persists unlock grants across daemon restarts.
type Store interface {
	SaveSession(rec SessionRecord) error
	DeleteSession(sessionID string) error
	ListSessions() ([]SessionRecord, error)
	Close() error
}

// migrations returns the device schema statements. Each string is a single
// SQL statement (SQLite executes one at a time).
func migrations() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS unlock_sessions (
			session_id TEXT PRIMARY KEY,
			app_ref    TEXT NOT NULL,
			expires_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_unlock_sessions_app ON unlock_sessions(app_ref)`,
	}
}

// SQLiteStore is the file-backed Store used by the device daemon.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLiteStore opens (or creates) the device database at path and applies
// the schema.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open device database: %w", err)
	}
	for _, stmt := range migrations() {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply device schema: %w", err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) SaveSession(rec SessionRecord) error {
	_, err := s.db.Exec(`
		INSERT INTO unlock_sessions (session_id, app_ref, expires_at)
		VALUES (?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			app_ref    = excluded.app_ref,
			expires_at = excluded.expires_at
	`, rec.SessionID, rec.AppRef, rec.ExpiresAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to save unlock session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteSession(sessionID string) error {
	if _, err := s.db.Exec(`DELETE FROM unlock_sessions WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to delete unlock session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListSessions() ([]SessionRecord, error) {
	rows, err := s.db.Query(`SELECT session_id, app_ref, expires_at FROM unlock_sessions`)
	if err != nil {
		return nil, fmt.Errorf("failed to list unlock sessions: %w", err)
	}
	defer rows.Close()

	var recs []SessionRecord
	for rows.Next() {
		var rec SessionRecord
		var expiresAt string
		if err := rows.Scan(&rec.SessionID, &rec.AppRef, &expiresAt); err != nil {
			return nil, fmt.Errorf("failed to scan unlock session: %w", err)
		}
		rec.ExpiresAt, err = time.Parse(time.RFC3339Nano, expiresAt)
		if err != nil {
			return nil, fmt.Errorf("bad expires_at for session %s: %w", rec.SessionID, err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
