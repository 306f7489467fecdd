package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"translator-notes/internal/domain"
)

func doc(id, note, ref string) domain.ExampleDocument {
	return domain.ExampleDocument{ID: id, Note: note, Metadata: domain.ExampleMetadata{Reference: ref, SourceID: "x" + id}}
}

func TestStorage_UpsertSearchClear(t *testing.T) {
	ctx := context.Background()
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Init(ctx, "test"))

	err = s.Upsert(ctx,
		[]domain.ExampleDocument{doc("doc_0", "first", "GEN 1:1"), doc("doc_1", "second", "GEN 1:2")},
		[][]float32{{1, 0}, {0, 1}})
	require.NoError(t, err)

	// Re-upserting an existing id is a no-op.
	require.NoError(t, s.Upsert(ctx, []domain.ExampleDocument{doc("doc_0", "changed", "X")}, [][]float32{{0, 1}}))
	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := s.Get(ctx, []string{"doc_0", "doc_9", "doc_1"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"doc_0", "doc_1"}, got)

	res, err := s.Search(ctx, []float32{0.9, 0.1}, 5)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "doc_0", res[0].Document.ID)
	assert.Equal(t, "first", res[0].Document.Note)
	assert.Equal(t, "GEN 1:1", res[0].Document.Metadata.Reference)
	assert.Less(t, res[0].Distance, res[1].Distance)

	res, err = s.Search(ctx, []float32{0, 1}, 1)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "doc_1", res[0].Document.ID)

	require.NoError(t, s.Clear(ctx))
	n, err = s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	// Dimension is reset with the contents.
	require.NoError(t, s.Upsert(ctx, []domain.ExampleDocument{doc("doc_0", "a", "")}, [][]float32{{1, 2, 3}}))
}

func TestStorage_DimensionMismatch(t *testing.T) {
	ctx := context.Background()
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Upsert(ctx, []domain.ExampleDocument{doc("doc_0", "a", "")}, [][]float32{{1, 0}}))
	err = s.Upsert(ctx, []domain.ExampleDocument{doc("doc_1", "b", "")}, [][]float32{{1, 0, 0}})
	require.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestStorage_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "index", "examples.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Init(ctx, "hashing-4"))
	require.NoError(t, s.Upsert(ctx, []domain.ExampleDocument{doc("doc_0", "kept", "GEN 1:1")}, [][]float32{{1, 0, 0, 0}}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Init(ctx, "hashing-4"))
	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	err = s.Init(ctx, "openai:text-embedding-3-small")
	require.ErrorIs(t, err, domain.ErrEmbedderMismatch)
}

func TestStorage_RebindEmptyIndex(t *testing.T) {
	ctx := context.Background()
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Init(ctx, "a"))
	require.NoError(t, s.Init(ctx, "b"))
}
