package examples

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"translator-notes/internal/domain"
	"translator-notes/internal/templates"
)

// TemplateRanker supplies style templates for a query.
type TemplateRanker interface {
	TopK(query string, k int) []string
}

// Index owns the example-note vector index. Writes are serialised; queries
// run concurrently and may or may not see an ingest that is in progress.
type Index struct {
	embedder  domain.Embedder
	store     domain.VectorStore
	templates TemplateRanker
	logger    *slog.Logger

	writeMu sync.Mutex
}

// New binds store to embedder. A store built with a different embedder is
// rejected with domain.ErrEmbedderMismatch.
func New(ctx context.Context, embedder domain.Embedder, store domain.VectorStore, tmpl TemplateRanker, logger *slog.Logger) (*Index, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := store.Init(ctx, embedder.Name()); err != nil {
		return nil, fmt.Errorf("init example index: %w", err)
	}
	return &Index{embedder: embedder, store: store, templates: tmpl, logger: logger}, nil
}

// Ingest adds the rows of one example-note file that are not indexed yet
// and returns how many were added.
func (x *Index) Ingest(ctx context.Context, path string) (int, error) {
	docs, err := ReadFile(path)
	if err != nil {
		return 0, err
	}
	return x.add(ctx, path, docs)
}

// IngestPaths ingests every .tsv file named directly or found in a named
// directory. All paths and headers are validated before anything is written.
func (x *Index) IngestPaths(ctx context.Context, paths []string) (files int, added int, err error) {
	names, err := ExpandPaths(paths)
	if err != nil {
		return 0, 0, err
	}
	parsed := make([][]domain.ExampleDocument, len(names))
	for i, name := range names {
		if parsed[i], err = ReadFile(name); err != nil {
			return 0, 0, err
		}
	}
	for i, name := range names {
		n, err := x.add(ctx, name, parsed[i])
		added += n
		if err != nil {
			return i, added, err
		}
	}
	return len(names), added, nil
}

func (x *Index) add(ctx context.Context, source string, docs []domain.ExampleDocument) (int, error) {
	x.writeMu.Lock()
	defer x.writeMu.Unlock()

	var fresh []domain.ExampleDocument
	for _, d := range docs {
		found, err := x.store.Get(ctx, []string{d.ID})
		if err != nil {
			return 0, fmt.Errorf("%w: lookup %s: %w", domain.ErrRetrieval, d.ID, err)
		}
		if len(found) == 0 {
			fresh = append(fresh, d)
		}
	}
	if len(fresh) == 0 {
		x.logger.Debug("examples already indexed", "source", source, "rows", len(docs))
		return 0, nil
	}
	vectors := make([][]float32, len(fresh))
	for i, d := range fresh {
		vec, err := x.embedder.Embed(ctx, d.Note)
		if err != nil {
			return 0, fmt.Errorf("%w: embed %s: %w", domain.ErrRetrieval, d.ID, err)
		}
		vectors[i] = vec
	}
	if err := x.store.Upsert(ctx, fresh, vectors); err != nil {
		return 0, fmt.Errorf("%w: upsert: %w", domain.ErrRetrieval, err)
	}
	x.logger.Info("examples ingested", "source", source, "rows", len(docs), "added", len(fresh))
	return len(fresh), nil
}

// Query returns the n examples nearest to text, plus the closest templates.
func (x *Index) Query(ctx context.Context, text string, n int) (domain.QueryResult, error) {
	if n < 1 {
		return domain.QueryResult{}, fmt.Errorf("%w: n_results must be positive, got %d", domain.ErrValidation, n)
	}
	vec, err := x.embedder.Embed(ctx, text)
	if err != nil {
		return domain.QueryResult{}, fmt.Errorf("%w: embed query: %w", domain.ErrRetrieval, err)
	}
	hits, err := x.store.Search(ctx, vec, n)
	if err != nil {
		return domain.QueryResult{}, fmt.Errorf("%w: search: %w", domain.ErrRetrieval, err)
	}
	res := domain.QueryResult{
		Documents: make([]domain.ExampleDocument, len(hits)),
		Distances: make([]float64, len(hits)),
	}
	for i, h := range hits {
		res.Documents[i] = h.Document
		res.Distances[i] = h.Distance
	}
	if x.templates != nil {
		res.TemplateDocs = x.templates.TopK(text, templates.DefaultTopK)
	}
	x.logger.Debug("examples queried", "n", n, "hits", len(hits))
	return res, nil
}

// Count returns the number of indexed examples.
func (x *Index) Count(ctx context.Context) (int, error) {
	n, err := x.store.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: count: %w", domain.ErrRetrieval, err)
	}
	return n, nil
}

// Clear removes every example from the index.
func (x *Index) Clear(ctx context.Context) error {
	x.writeMu.Lock()
	defer x.writeMu.Unlock()
	if err := x.store.Clear(ctx); err != nil {
		return fmt.Errorf("%w: clear: %w", domain.ErrRetrieval, err)
	}
	x.logger.Info("example index cleared")
	return nil
}
