package service

import (
	"context"
	"fmt"
	"log/slog"

	"translator-notes/internal/domain"
	"translator-notes/internal/prompt"
)

// DefaultResults is the number of examples retrieved for a prompt.
const DefaultResults = 10

// VerseResolver resolves a reference to its formatted verse.
type VerseResolver interface {
	Lookup(reference string) string
}

// ExampleIndex is the subset of the example index the service drives.
type ExampleIndex interface {
	IngestPaths(ctx context.Context, paths []string) (files int, added int, err error)
	Query(ctx context.Context, text string, n int) (domain.QueryResult, error)
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}

type NotesServiceImpl struct {
	verses    VerseResolver
	index     ExampleIndex
	generator domain.Generator
	logger    *slog.Logger
}

func NewNotesService(verses VerseResolver, index ExampleIndex, generator domain.Generator, logger *slog.Logger) *NotesServiceImpl {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotesServiceImpl{verses: verses, index: index, generator: generator, logger: logger}
}

// ResolveVerse returns "reference: text" for the reference or its closest match.
func (s *NotesServiceImpl) ResolveVerse(reference string) string {
	return s.verses.Lookup(reference)
}

// Retrieve returns the n nearest example notes and the closest templates.
func (s *NotesServiceImpl) Retrieve(ctx context.Context, query string, n int) (domain.QueryResult, error) {
	return s.index.Query(ctx, query, n)
}

// AssemblePrompt resolves the verse, retrieves context and builds the
// generator prompt. A retrieval failure stops assembly.
func (s *NotesServiceImpl) AssemblePrompt(ctx context.Context, query, reference string) (string, error) {
	verse := s.verses.Lookup(reference)
	res, err := s.index.Query(ctx, query, DefaultResults)
	if err != nil {
		return "", err
	}
	return prompt.Assemble(query, reference, verse, res.Notes(), res.TemplateDocs), nil
}

// Draft assembles the prompt and asks the generator for a new note.
func (s *NotesServiceImpl) Draft(ctx context.Context, query, reference string) (string, error) {
	p, err := s.AssemblePrompt(ctx, query, reference)
	if err != nil {
		return "", err
	}
	if s.generator == nil {
		return "", fmt.Errorf("%w: no generator configured", domain.ErrGeneration)
	}
	out, err := s.generator.Complete(ctx, p)
	if err != nil {
		s.logger.Warn("generation failed", "reference", reference, "error", err)
		return "", fmt.Errorf("%w: %w", domain.ErrGeneration, err)
	}
	s.logger.Info("note drafted", "reference", reference, "prompt_bytes", len(p), "response_bytes", len(out))
	return out, nil
}

// Ingest adds example-note files or directories of them to the index.
func (s *NotesServiceImpl) Ingest(ctx context.Context, paths []string) (int, int, error) {
	return s.index.IngestPaths(ctx, paths)
}

// ClearIndex empties the example index.
func (s *NotesServiceImpl) ClearIndex(ctx context.Context) error {
	return s.index.Clear(ctx)
}

// IndexSize returns the number of indexed examples.
func (s *NotesServiceImpl) IndexSize(ctx context.Context) (int, error) {
	return s.index.Count(ctx)
}

var _ domain.NotesService = (*NotesServiceImpl)(nil)
