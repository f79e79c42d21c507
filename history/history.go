// Package history records the outcome of connection attempts in a local
// SQLite database, one row per attempt. The log is purely informational;
// nothing in the session lifecycle reads it back.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/nkurtalj/openvpn-manager/common"
)

// Session is one recorded connection attempt.
type Session struct {
	// ID is a unique identifier for the attempt.
	ID string
	// ConfigName is the tunnel configuration that was started.
	ConfigName string
	// Verbose reports whether the attempt ran with log classification.
	Verbose bool
	// Outcome is the terminal classification, e.g. "Established".
	Outcome string
	// StartedAt is when the attempt began.
	StartedAt time.Time
}

// Store persists sessions to a SQLite database in the application data
// directory.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the history database at dbPath.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	// Create the file 0600 before the driver touches it.
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		f, ferr := os.OpenFile(dbPath, os.O_CREATE|os.O_RDONLY, 0600)
		if ferr == nil {
			f.Close()
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping history database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// OpenDefault opens the history database in the application data directory.
func OpenDefault() (*Store, error) {
	dataDir, err := common.GetDataDir()
	if err != nil {
		return nil, err
	}
	return Open(filepath.Join(dataDir, common.HistoryFileName))
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		config_name TEXT NOT NULL,
		verbose INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		started_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize history schema: %w", err)
	}
	return nil
}

// Record inserts one session. A missing ID is generated.
func (s *Store) Record(session Session) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.StartedAt.IsZero() {
		session.StartedAt = time.Now()
	}

	_, err := s.db.Exec(
		`INSERT INTO sessions (id, config_name, verbose, outcome, started_at)
		 VALUES (?, ?, ?, ?, ?)`,
		session.ID, session.ConfigName, session.Verbose, session.Outcome, session.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record session: %w", err)
	}
	return nil
}

// Recent returns up to limit sessions, newest first.
func (s *Store) Recent(limit int) ([]Session, error) {
	rows, err := s.db.Query(
		`SELECT id, config_name, verbose, outcome, started_at
		 FROM sessions ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.ID, &sess.ConfigName, &sess.Verbose, &sess.Outcome, &sess.StartedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
