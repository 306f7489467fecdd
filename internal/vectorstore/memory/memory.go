package memory

import (
	"context"
	"fmt"
	"sync"

	"translator-notes/internal/domain"
	"translator-notes/internal/vectorstore"
)

// Storage is a simple in-memory vector store using brute-force cosine distance.
// Contents do not survive the process.
type Storage struct {
	mu        sync.RWMutex
	embedder  string
	dimension int
	order     []string
	entries   map[string]vectorstore.Candidate
}

func NewStorage() *Storage { return &Storage{entries: make(map[string]vectorstore.Candidate)} }

func (s *Storage) Init(_ context.Context, embedder string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.embedder != "" && s.embedder != embedder && len(s.order) > 0 {
		return fmt.Errorf("%w: index has %q, got %q", domain.ErrEmbedderMismatch, s.embedder, embedder)
	}
	s.embedder = embedder
	return nil
}

func (s *Storage) Get(_ context.Context, ids []string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for _, id := range ids {
		if _, ok := s.entries[id]; ok {
			out = append(out, id)
		}
	}
	return out, nil
}

func (s *Storage) Upsert(_ context.Context, docs []domain.ExampleDocument, vectors [][]float32) error {
	if len(docs) != len(vectors) {
		return fmt.Errorf("documents and vectors length mismatch: %d != %d", len(docs), len(vectors))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	dim := s.dimension
	for _, v := range vectors {
		if dim == 0 {
			dim = len(v)
		}
		if len(v) != dim {
			return fmt.Errorf("%w: %d vs %d", domain.ErrDimensionMismatch, len(v), dim)
		}
	}
	s.dimension = dim
	for i, d := range docs {
		if _, ok := s.entries[d.ID]; ok {
			continue
		}
		s.order = append(s.order, d.ID)
		s.entries[d.ID] = vectorstore.Candidate{Document: d, Vector: vectors[i]}
	}
	return nil
}

func (s *Storage) Search(_ context.Context, vector []float32, topK int) ([]domain.SearchResult, error) {
	s.mu.RLock()
	candidates := make([]vectorstore.Candidate, len(s.order))
	for i, id := range s.order {
		candidates[i] = s.entries[id]
	}
	s.mu.RUnlock()
	return vectorstore.Nearest(vector, candidates, topK)
}

func (s *Storage) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order), nil
}

func (s *Storage) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = nil
	s.entries = make(map[string]vectorstore.Candidate)
	s.dimension = 0
	return nil
}

var _ domain.VectorStore = (*Storage)(nil)
