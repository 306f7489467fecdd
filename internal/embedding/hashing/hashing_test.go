package hashing

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func TestEmbedIsDeterministicAcrossInstances(t *testing.T) {
	ctx := context.Background()
	a, err := NewEmbedder(64).Embed(ctx, "In the beginning God created")
	require.NoError(t, err)
	b, err := NewEmbedder(64).Embed(ctx, "In the beginning God created")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestEmbedIsUnitLength(t *testing.T) {
	v, err := NewEmbedder(0).Embed(context.Background(), "the cultural context of the phrase")
	require.NoError(t, err)
	assert.Len(t, v, DefaultDimension)
	assert.InDelta(t, 1.0, cosine(v, v), 1e-6)
}

func TestEmbedStopwordsOnly(t *testing.T) {
	v, err := NewEmbedder(32).Embed(context.Background(), "the and of")
	require.NoError(t, err)
	for _, x := range v {
		assert.Zero(t, x)
	}
}

func TestSharedWordsAreCloser(t *testing.T) {
	e := NewEmbedder(256)
	ctx := context.Background()
	q, _ := e.Embed(ctx, "beginning context")
	near, _ := e.Embed(ctx, "In the beginning: consider the context")
	far, _ := e.Embed(ctx, "shepherd sheep pasture water")
	assert.Greater(t, cosine(q, near), cosine(q, far))
}

func TestName(t *testing.T) {
	assert.Equal(t, "hashing-128", NewEmbedder(128).Name())
}
