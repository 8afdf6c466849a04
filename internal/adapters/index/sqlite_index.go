package index

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/finsurv/comms-triage/internal/core"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// SQLiteIndex is a persistent implementation of the SimilarityIndex
// interface. Embeddings are stored as little-endian float32 blobs and
// scanned in full per query; adequate for the corpus sizes a single
// compliance team investigates.
type SQLiteIndex struct {
	db     *sql.DB
	dim    int
	logger *zap.Logger
}

// NewSQLiteIndex creates a new SQLite-backed similarity index
func NewSQLiteIndex(dbPath string, dim int, logger *zap.Logger) (*SQLiteIndex, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS message_embeddings (
			message_id TEXT PRIMARY KEY,
			label TEXT NOT NULL,
			embedding BLOB NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create embeddings table: %w", err)
	}

	return &SQLiteIndex{db: db, dim: dim, logger: logger}, nil
}

// Upsert stores or replaces the embedding and label for a message
func (idx *SQLiteIndex) Upsert(ctx context.Context, messageID string, embedding []float32, label string) error {
	if len(embedding) != idx.dim {
		return fmt.Errorf("embedding of length %d, index dimension %d: %w", len(embedding), idx.dim, core.ErrDimensionMismatch)
	}

	_, err := idx.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO message_embeddings (message_id, label, embedding)
		VALUES (?, ?, ?)
	`, messageID, label, encodeVector(embedding))
	if err != nil {
		return fmt.Errorf("failed to upsert embedding: %w", err)
	}
	return nil
}

// Query returns up to k neighbors ordered most-similar first
func (idx *SQLiteIndex) Query(ctx context.Context, embedding []float32, k int, labelFilter string) ([]core.Neighbor, error) {
	if len(embedding) != idx.dim {
		return nil, fmt.Errorf("query embedding of length %d, index dimension %d: %w", len(embedding), idx.dim, core.ErrDimensionMismatch)
	}
	if k <= 0 {
		return nil, nil
	}

	query := `SELECT message_id, label, embedding FROM message_embeddings`
	args := []any{}
	if labelFilter != "" {
		query += ` WHERE label = ?`
		args = append(args, labelFilter)
	}

	rows, err := idx.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query embeddings: %w", err)
	}
	defer rows.Close()

	var neighbors []core.Neighbor
	for rows.Next() {
		var (
			id    string
			label string
			blob  []byte
		)
		if err := rows.Scan(&id, &label, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan embedding row: %w", err)
		}
		stored, err := decodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("failed to decode embedding for message %s: %w", id, err)
		}
		score, err := core.CosineSimilarity(embedding, stored)
		if err != nil {
			return nil, fmt.Errorf("failed to score neighbor %s: %w", id, err)
		}
		neighbors = append(neighbors, core.Neighbor{MessageID: id, Score: score, Label: label})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(neighbors, func(i, j int) bool {
		if neighbors[i].Score != neighbors[j].Score {
			return neighbors[i].Score > neighbors[j].Score
		}
		return neighbors[i].MessageID < neighbors[j].MessageID
	})

	if len(neighbors) > k {
		neighbors = neighbors[:k]
	}
	return neighbors, nil
}

// Close closes the database connection
func (idx *SQLiteIndex) Close() error {
	return idx.db.Close()
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(buf []byte) ([]float32, error) {
	if len(buf)%4 != 0 {
		return nil, fmt.Errorf("embedding blob of %d bytes is not a float32 array", len(buf))
	}
	v := make([]float32, len(buf)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return v, nil
}
