package vectorstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"translator-notes/internal/domain"
)

func TestCosineDistance(t *testing.T) {
	d, err := CosineDistance([]float32{1, 0}, []float32{0, 1})
	require.NoError(t, err)
	assert.InDelta(t, 1, d, 1e-9)

	d, err = CosineDistance([]float32{1, 0}, []float32{2, 0})
	require.NoError(t, err)
	assert.InDelta(t, 0, d, 1e-9)

	d, err = CosineDistance([]float32{0, 0}, []float32{1, 0})
	require.NoError(t, err)
	assert.Equal(t, 1.0, d)

	_, err = CosineDistance([]float32{1}, []float32{1, 0})
	require.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestNearestStableTies(t *testing.T) {
	cands := []Candidate{
		{Document: domain.ExampleDocument{ID: "a"}, Vector: []float32{0, 1}},
		{Document: domain.ExampleDocument{ID: "b"}, Vector: []float32{0, 2}},
		{Document: domain.ExampleDocument{ID: "c"}, Vector: []float32{1, 0}},
	}
	res, err := Nearest([]float32{0, 1}, cands, 0)
	require.NoError(t, err)
	require.Len(t, res, 3)
	assert.Equal(t, "a", res[0].Document.ID)
	assert.Equal(t, "b", res[1].Document.ID)
	assert.Equal(t, "c", res[2].Document.ID)
}
