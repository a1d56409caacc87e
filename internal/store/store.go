// Package store provides SQLite-backed persistence for the CortexDesk
// decision journal.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fentz26/cortexdesk/internal/models"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store wraps the journal database. All access goes through a single
// connection since SQLite serializes writers anyway.
type Store struct {
	db *sql.DB
}

const pragmas = "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

// migrations are applied in order; PRAGMA user_version records how many ran.
var migrations = []string{
	`CREATE TABLE journal (
		id          TEXT PRIMARY KEY,
		action      TEXT NOT NULL,
		inputs_hash TEXT NOT NULL,
		outcome     TEXT NOT NULL,
		subject     TEXT,
		details     TEXT,
		timestamp   DATETIME NOT NULL
	)`,
	`CREATE INDEX idx_journal_timestamp ON journal(timestamp)`,
	`CREATE INDEX idx_journal_action ON journal(action)`,
}

// New opens the journal at path, creating the file and parent directory
// when missing, and brings the schema up to date.
func New(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}
	db, err := sql.Open("sqlite", path+pragmas)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping checks the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) migrate(ctx context.Context) error {
	var version int
	if err := s.db.QueryRowContext(ctx, `PRAGMA user_version`).Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	for i := version; i < len(migrations); i++ {
		if _, err := s.db.ExecContext(ctx, migrations[i]); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
		if _, err := s.db.ExecContext(ctx, fmt.Sprintf(`PRAGMA user_version = %d`, i+1)); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
	}
	return nil
}

// WriteEntry appends a journal entry.
func (s *Store) WriteEntry(action, inputsHash, outcome, subject, details string) (*models.JournalEntry, error) {
	e := &models.JournalEntry{
		ID:         uuid.New().String(),
		Action:     action,
		InputsHash: inputsHash,
		Outcome:    outcome,
		Subject:    subject,
		Details:    details,
		Timestamp:  time.Now().UTC(),
	}

	_, err := s.db.Exec(
		`INSERT INTO journal (id, action, inputs_hash, outcome, subject, details, timestamp) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Action, e.InputsHash, e.Outcome, e.Subject, e.Details, e.Timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert journal entry: %w", err)
	}
	return e, nil
}

// JournalFilter narrows ListJournal. Zero values match everything.
type JournalFilter struct {
	Action  string
	Subject string
	Limit   int
}

// ListJournal returns entries newest first.
func (s *Store) ListJournal(f JournalFilter) ([]models.JournalEntry, error) {
	query := `SELECT id, action, inputs_hash, outcome, subject, details, timestamp FROM journal WHERE 1=1`
	var args []any
	if f.Action != "" {
		query += ` AND action = ?`
		args = append(args, f.Action)
	}
	if f.Subject != "" {
		query += ` AND subject = ?`
		args = append(args, f.Subject)
	}
	query += ` ORDER BY timestamp DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	var entries []models.JournalEntry
	for rows.Next() {
		var e models.JournalEntry
		var subject, details sql.NullString
		if err := rows.Scan(&e.ID, &e.Action, &e.InputsHash, &e.Outcome, &subject, &details, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		e.Subject = subject.String
		e.Details = details.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// PruneJournal deletes entries older than before and returns how many.
func (s *Store) PruneJournal(before time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM journal WHERE timestamp < ?`, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("prune journal: %w", err)
	}
	return res.RowsAffected()
}
