package index

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/finsurv/comms-triage/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestSQLiteIndex(t *testing.T, dim int) *SQLiteIndex {
	t.Helper()
	idx, err := NewSQLiteIndex(filepath.Join(t.TempDir(), "embeddings.db"), dim, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func TestSQLiteIndexRoundTrip(t *testing.T) {
	idx := newTestSQLiteIndex(t, 3)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, "m1", []float32{0.5, -0.25, 1}, core.LabelClean))

	neighbors, err := idx.Query(ctx, []float32{0.5, -0.25, 1}, 1, "")
	require.NoError(t, err)
	require.Len(t, neighbors, 1)
	assert.Equal(t, "m1", neighbors[0].MessageID)
	assert.Equal(t, core.LabelClean, neighbors[0].Label)
	assert.InDelta(t, 1.0, neighbors[0].Score, 1e-6)
}

func TestSQLiteIndexUpsertReplacesLabel(t *testing.T) {
	idx := newTestSQLiteIndex(t, 2)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, "m1", []float32{1, 0}, core.LabelPendingReview))
	require.NoError(t, idx.Upsert(ctx, "m1", []float32{1, 0}, core.LabelInsiderTrading))

	neighbors, err := idx.Query(ctx, []float32{1, 0}, 10, "")
	require.NoError(t, err)
	require.Len(t, neighbors, 1)
	assert.Equal(t, core.LabelInsiderTrading, neighbors[0].Label)
}

func TestSQLiteIndexLabelFilterAndOrder(t *testing.T) {
	idx := newTestSQLiteIndex(t, 2)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, "near", []float32{1, 0.1}, core.LabelClean))
	require.NoError(t, idx.Upsert(ctx, "far", []float32{0, 1}, core.LabelClean))
	require.NoError(t, idx.Upsert(ctx, "flagged", []float32{1, 0}, core.LabelInsiderTrading))

	neighbors, err := idx.Query(ctx, []float32{1, 0}, 10, core.LabelClean)
	require.NoError(t, err)
	require.Len(t, neighbors, 2)
	assert.Equal(t, "near", neighbors[0].MessageID)
	assert.Equal(t, "far", neighbors[1].MessageID)
}

func TestSQLiteIndexDimensionMismatch(t *testing.T) {
	idx := newTestSQLiteIndex(t, 3)
	ctx := context.Background()

	err := idx.Upsert(ctx, "m1", []float32{1, 0}, core.LabelClean)
	assert.ErrorIs(t, err, core.ErrDimensionMismatch)
}

func TestVectorCodecRoundTrip(t *testing.T) {
	original := []float32{0, -1.5, 3.25, 1e-7}

	decoded, err := decodeVector(encodeVector(original))
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}

func TestDecodeVectorRejectsTruncatedBlob(t *testing.T) {
	_, err := decodeVector([]byte{1, 2, 3})
	assert.Error(t, err)
}
