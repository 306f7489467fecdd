package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"translator-notes/internal/domain"
)

func TestStorage_Lifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewStorage()
	require.NoError(t, s.Init(ctx, "e1"))

	docs := []domain.ExampleDocument{{ID: "doc_0", Note: "a"}, {ID: "doc_1", Note: "b"}, {ID: "doc_2", Note: "c"}}
	require.NoError(t, s.Upsert(ctx, docs, [][]float32{{1, 0}, {0, 1}, {1, 1}}))
	require.NoError(t, s.Upsert(ctx, docs[:1], [][]float32{{0, 1}}))

	n, _ := s.Count(ctx)
	assert.Equal(t, 3, n)

	res, err := s.Search(ctx, []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "doc_0", res[0].Document.ID)
	assert.InDelta(t, 0, res[0].Distance, 1e-9)
	assert.Equal(t, "doc_2", res[1].Document.ID)

	require.ErrorIs(t, s.Init(ctx, "e2"), domain.ErrEmbedderMismatch)
	require.ErrorIs(t, s.Upsert(ctx, []domain.ExampleDocument{{ID: "doc_3"}}, [][]float32{{1, 2, 3}}), domain.ErrDimensionMismatch)

	require.NoError(t, s.Clear(ctx))
	n, _ = s.Count(ctx)
	assert.Zero(t, n)
	require.NoError(t, s.Init(ctx, "e2"))
}

func TestStorage_SearchDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	s := NewStorage()
	require.NoError(t, s.Upsert(ctx, []domain.ExampleDocument{{ID: "doc_0"}}, [][]float32{{1, 0}}))
	_, err := s.Search(ctx, []float32{1, 0, 0}, 1)
	require.ErrorIs(t, err, domain.ErrDimensionMismatch)
}
