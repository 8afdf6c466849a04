package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/finsurv/comms-triage/internal/core"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// SQLiteStore is a SQLite implementation of the VerdictStore interface.
// All verdicts for a message live in one table; exactly one row per
// message carries is_current = 1.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStore creates a new SQLite verdict store
func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS verdicts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			message_id TEXT NOT NULL,
			label TEXT NOT NULL,
			confidence REAL NOT NULL,
			source TEXT NOT NULL,
			rationale TEXT,
			decided_at TIMESTAMP NOT NULL,
			is_current BOOLEAN NOT NULL DEFAULT 1
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create verdicts table: %w", err)
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_verdicts_message ON verdicts(message_id, is_current)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &SQLiteStore{db: db, logger: logger}, nil
}

// Put replaces the current verdict for a message inside a transaction,
// demoting any prior current row to history
func (s *SQLiteStore) Put(ctx context.Context, v *core.Verdict) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		UPDATE verdicts SET is_current = 0
		WHERE message_id = ? AND is_current = 1
	`, v.MessageID)
	if err != nil {
		return fmt.Errorf("failed to demote prior verdict: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO verdicts (message_id, label, confidence, source, rationale, decided_at, is_current)
		VALUES (?, ?, ?, ?, ?, ?, 1)
	`, v.MessageID, v.Label, v.Confidence, string(v.Source), v.Rationale, v.DecidedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to insert verdict: %w", err)
	}

	return tx.Commit()
}

// Get retrieves the current verdict for a message
func (s *SQLiteStore) Get(ctx context.Context, messageID string) (*core.Verdict, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT label, confidence, source, rationale, decided_at
		FROM verdicts
		WHERE message_id = ? AND is_current = 1
	`, messageID)

	v, err := scanVerdict(row, messageID)
	if err == sql.ErrNoRows {
		return nil, core.ErrVerdictNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query verdict: %w", err)
	}
	return v, nil
}

// History returns superseded verdicts for a message, oldest first
func (s *SQLiteStore) History(ctx context.Context, messageID string) ([]*core.Verdict, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT label, confidence, source, rationale, decided_at
		FROM verdicts
		WHERE message_id = ? AND is_current = 0
		ORDER BY id ASC
	`, messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to query verdict history: %w", err)
	}
	defer rows.Close()

	var verdicts []*core.Verdict
	for rows.Next() {
		v, err := scanVerdict(rows, messageID)
		if err != nil {
			return nil, fmt.Errorf("failed to scan verdict row: %w", err)
		}
		verdicts = append(verdicts, v)
	}
	return verdicts, rows.Err()
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVerdict(row rowScanner, messageID string) (*core.Verdict, error) {
	var (
		v         core.Verdict
		source    string
		rationale sql.NullString
		decidedAt string
	)
	if err := row.Scan(&v.Label, &v.Confidence, &source, &rationale, &decidedAt); err != nil {
		return nil, err
	}
	v.MessageID = messageID
	v.Source = core.VerdictSource(source)
	v.Rationale = rationale.String

	ts, err := time.Parse(time.RFC3339Nano, decidedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse decided_at timestamp: %w", err)
	}
	v.DecidedAt = ts
	return &v, nil
}
