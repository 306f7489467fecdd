package vectorstore

import (
	"fmt"
	"math"
	"sort"

	"translator-notes/internal/domain"
)

// Storage persists example vectors and supports similarity search.
type Storage = domain.VectorStore

// CosineDistance returns 1 - cosine similarity. Zero-magnitude vectors are
// treated as maximally distant.
func CosineDistance(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", domain.ErrDimensionMismatch, len(a), len(b))
	}
	var dot, na2, nb2 float64
	for i := range a {
		va, vb := float64(a[i]), float64(b[i])
		dot += va * vb
		na2 += va * va
		nb2 += vb * vb
	}
	if na2 == 0 || nb2 == 0 {
		return 1, nil
	}
	return 1 - dot/(math.Sqrt(na2)*math.Sqrt(nb2)), nil
}

// Candidate is one scored entry considered by a brute-force search.
type Candidate struct {
	Document domain.ExampleDocument
	Vector   []float32
}

// Nearest ranks candidates by cosine distance to query and returns the topK
// nearest. Equal distances keep candidate order.
func Nearest(query []float32, candidates []Candidate, topK int) ([]domain.SearchResult, error) {
	results := make([]domain.SearchResult, 0, len(candidates))
	for _, c := range candidates {
		d, err := CosineDistance(query, c.Vector)
		if err != nil {
			return nil, err
		}
		results = append(results, domain.SearchResult{Document: c.Document, Distance: d})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Distance < results[j].Distance })
	if topK > 0 && topK < len(results) {
		results = results[:topK]
	}
	return results, nil
}
