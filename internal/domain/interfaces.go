package domain

import (
	"context"
	"errors"
)

// VerseEntry is a single row of the verse corpus.
type VerseEntry struct {
	Reference string
	Text      string
}

// ExampleMetadata carries the annotation columns of a translation-note row.
type ExampleMetadata struct {
	Reference        string `json:"Reference"`
	SourceID         string `json:"ID"`
	Tags             string `json:"Tags"`
	SupportReference string `json:"SupportReference"`
	Quote            string `json:"Quote"`
	Occurrence       string `json:"Occurrence"`
}

// ExampleDocument is an annotated example note owned by the example index.
type ExampleDocument struct {
	ID       string          `json:"id"`
	Note     string          `json:"document"`
	Metadata ExampleMetadata `json:"metadata"`
}

// SearchResult is a stored document together with its distance to a query vector.
// Smaller distances are nearer.
type SearchResult struct {
	Document ExampleDocument
	Distance float64
}

// QueryResult is returned by example retrieval. Documents and Distances are
// parallel and nearest-first; TemplateDocs are the closest style templates.
type QueryResult struct {
	Documents    []ExampleDocument `json:"documents"`
	Distances    []float64         `json:"distances"`
	TemplateDocs []string          `json:"template_docs"`
}

// Notes returns the note text of every retrieved document in order.
func (r QueryResult) Notes() []string {
	out := make([]string, len(r.Documents))
	for i, d := range r.Documents {
		out[i] = d.Note
	}
	return out
}

var (
	// ErrValidation marks bad caller input: unknown paths, missing columns, bad counts.
	ErrValidation = errors.New("invalid input")
	// ErrRetrieval marks embedding or vector index failures.
	ErrRetrieval = errors.New("retrieval failed")
	// ErrGeneration marks language model failures.
	ErrGeneration = errors.New("generation failed")
	// ErrEmbedderMismatch is returned when a vector store populated by one
	// embedder is used with another.
	ErrEmbedderMismatch = errors.New("embedder does not match the one used to build the index")
	// ErrDimensionMismatch is returned when a vector does not have the index dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// Embedder converts free text into a numeric vector representation.
// The same embedder must be used for ingestion and query.
type Embedder interface {
	Name() string
	Dimension() int
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorStore persists example vectors and supports nearest-neighbour search.
type VectorStore interface {
	// Init binds the store to an embedder identity. A store that already
	// holds vectors from a different embedder returns ErrEmbedderMismatch.
	Init(ctx context.Context, embedder string) error
	// Get returns the subset of ids already present.
	Get(ctx context.Context, ids []string) ([]string, error)
	// Upsert writes documents; ids that already exist are left untouched.
	Upsert(ctx context.Context, docs []ExampleDocument, vectors [][]float32) error
	Search(ctx context.Context, vector []float32, topK int) ([]SearchResult, error)
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}

// Generator turns an assembled prompt into model output.
type Generator interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// NotesService defines the operations exposed by the application core.
type NotesService interface {
	ResolveVerse(reference string) string
	Retrieve(ctx context.Context, query string, n int) (QueryResult, error)
	AssemblePrompt(ctx context.Context, query, reference string) (string, error)
	Draft(ctx context.Context, query, reference string) (string, error)
	Ingest(ctx context.Context, paths []string) (files int, added int, err error)
	ClearIndex(ctx context.Context) error
}
