package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/finsurv/comms-triage/internal/core"
	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

// MySQLStore is a MySQL implementation of the VerdictStore interface
// for deployments where multiple analysts share one verdict database
type MySQLStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewMySQLStore creates a new MySQL verdict store
func NewMySQLStore(dsn string, logger *zap.Logger) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS verdicts (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			message_id VARCHAR(36) NOT NULL,
			label VARCHAR(50) NOT NULL,
			confidence DOUBLE NOT NULL,
			source VARCHAR(10) NOT NULL,
			rationale TEXT,
			decided_at TIMESTAMP(6) NOT NULL,
			is_current BOOLEAN NOT NULL DEFAULT TRUE,
			INDEX idx_verdicts_message (message_id, is_current)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create verdicts table: %w", err)
	}

	return &MySQLStore{db: db, logger: logger}, nil
}

// Put replaces the current verdict for a message inside a transaction,
// demoting any prior current row to history
func (s *MySQLStore) Put(ctx context.Context, v *core.Verdict) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		UPDATE verdicts SET is_current = FALSE
		WHERE message_id = ? AND is_current = TRUE
	`, v.MessageID)
	if err != nil {
		return fmt.Errorf("failed to demote prior verdict: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO verdicts (message_id, label, confidence, source, rationale, decided_at, is_current)
		VALUES (?, ?, ?, ?, ?, ?, TRUE)
	`, v.MessageID, v.Label, v.Confidence, string(v.Source), v.Rationale, v.DecidedAt.UTC().Format("2006-01-02 15:04:05.000000"))
	if err != nil {
		return fmt.Errorf("failed to insert verdict: %w", err)
	}

	return tx.Commit()
}

// Get retrieves the current verdict for a message
func (s *MySQLStore) Get(ctx context.Context, messageID string) (*core.Verdict, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT label, confidence, source, rationale, decided_at
		FROM verdicts
		WHERE message_id = ? AND is_current = TRUE
	`, messageID)

	v, err := scanMySQLVerdict(row, messageID)
	if err == sql.ErrNoRows {
		return nil, core.ErrVerdictNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query verdict: %w", err)
	}
	return v, nil
}

// History returns superseded verdicts for a message, oldest first
func (s *MySQLStore) History(ctx context.Context, messageID string) ([]*core.Verdict, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT label, confidence, source, rationale, decided_at
		FROM verdicts
		WHERE message_id = ? AND is_current = FALSE
		ORDER BY id ASC
	`, messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to query verdict history: %w", err)
	}
	defer rows.Close()

	var verdicts []*core.Verdict
	for rows.Next() {
		v, err := scanMySQLVerdict(rows, messageID)
		if err != nil {
			return nil, fmt.Errorf("failed to scan verdict row: %w", err)
		}
		verdicts = append(verdicts, v)
	}
	return verdicts, rows.Err()
}

// Close closes the database connection
func (s *MySQLStore) Close() error {
	return s.db.Close()
}

func scanMySQLVerdict(row rowScanner, messageID string) (*core.Verdict, error) {
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

	ts, err := time.Parse("2006-01-02 15:04:05.000000", decidedAt)
	if err != nil {
		// MySQL may return the timestamp without fractional seconds
		ts, err = time.Parse("2006-01-02 15:04:05", decidedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse decided_at timestamp: %w", err)
		}
	}
	v.DecidedAt = ts
	return &v, nil
}
