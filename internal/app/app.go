// Package app assembles the notes service from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"translator-notes/internal/config"
	"translator-notes/internal/domain"
	"translator-notes/internal/embedding/cache"
	"translator-notes/internal/embedding/hashing"
	"translator-notes/internal/embedding/onnx"
	embedopenai "translator-notes/internal/embedding/openai"
	"translator-notes/internal/examples"
	genopenai "translator-notes/internal/generator/openai"
	"translator-notes/internal/service"
	"translator-notes/internal/templates"
	"translator-notes/internal/vectorstore/memory"
	"translator-notes/internal/vectorstore/qdrant"
	"translator-notes/internal/vectorstore/sqlite"
	"translator-notes/internal/verse"
)

// App owns every long-lived component of a running process.
type App struct {
	Config    *config.AppConfig
	Verses    *verse.Store
	Templates *templates.Matcher
	Index     *examples.Index
	Service   *service.NotesServiceImpl
	Logger    *slog.Logger

	closers []io.Closer
}

// Build loads the corpora and wires embedder, store and generator as configured.
// A missing verse or template file is an error. A generator that cannot be
// configured (no API key) is logged and left out; drafting then fails with
// domain.ErrGeneration while retrieval keeps working.
func Build(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, Logger: logger}
	ok := false
	defer func() {
		if !ok {
			_ = a.Close()
		}
	}()

	var err error
	if a.Verses, err = verse.Load(cfg.Data.Verses); err != nil {
		return nil, fmt.Errorf("load verses: %w", err)
	}
	if a.Templates, err = templates.Load(cfg.Data.Templates); err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	logger.Info("corpora loaded", "verses", a.Verses.Len(), "templates", a.Templates.Len())

	emb, err := a.embedder(cfg.Embedder)
	if err != nil {
		return nil, err
	}
	store, err := a.store(cfg.VectorStore)
	if err != nil {
		return nil, err
	}
	if a.Index, err = examples.New(ctx, emb, store, a.Templates, logger); err != nil {
		return nil, err
	}

	var gen domain.Generator
	g := cfg.Generator
	client, err := genopenai.NewClient(genopenai.Config{
		BaseURL:           g.BaseURL,
		APIKeyEnv:         g.APIKeyEnv,
		Model:             g.Model,
		SystemPrompt:      g.SystemPrompt,
		Temperature:       g.Temperature,
		Timeout:           time.Duration(g.TimeoutSecs) * time.Second,
		MaxRetries:        g.MaxRetries,
		RequestsPerSecond: g.RequestsPerSecond,
	})
	if err != nil {
		logger.Warn("generator disabled", "error", err)
	} else {
		gen = client
	}

	a.Service = service.NewNotesService(a.Verses, a.Index, gen, logger)
	ok = true
	return a, nil
}

func (a *App) embedder(cfg config.EmbedderConfig) (domain.Embedder, error) {
	var emb domain.Embedder
	switch cfg.Type {
	case "hash", "":
		emb = hashing.NewEmbedder(cfg.Dimension)
	case "openai":
		o := cfg.OpenAI
		if o == nil {
			return nil, errors.New("openai embedder config missing")
		}
		client, err := embedopenai.NewClient(embedopenai.Config{
			BaseURL:    o.BaseURL,
			APIKeyEnv:  o.APIKeyEnv,
			Model:      o.Model,
			Timeout:    time.Duration(o.TimeoutSecs) * time.Second,
			MaxRetries: o.MaxRetries,
		})
		if err != nil {
			return nil, fmt.Errorf("openai embedder: %w", err)
		}
		emb = client
	case "onnx":
		o := cfg.ONNX
		if o == nil {
			return nil, errors.New("onnx embedder config missing")
		}
		e, err := onnx.New(onnx.Config{
			SharedLibrary: o.SharedLibrary,
			ModelPath:     o.ModelPath,
			TokenizerPath: o.TokenizerPath,
			ModelID:       o.ModelID,
			MaxSeqLen:     o.MaxSeqLen,
			Dimension:     o.Dimension,
		})
		if err != nil {
			return nil, fmt.Errorf("onnx embedder: %w", err)
		}
		a.closers = append(a.closers, e)
		emb = e
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Type)
	}

	var backend cache.Backend
	switch cfg.Cache.Type {
	case "", "none":
		return emb, nil
	case "memory":
		backend = cache.NewMemory()
	case "disk":
		d, err := cache.NewDisk(cfg.Cache.Dir)
		if err != nil {
			return nil, fmt.Errorf("embedding cache: %w", err)
		}
		backend = d
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.Cache.RedisAddr, DB: cfg.Cache.RedisDB})
		a.closers = append(a.closers, client)
		backend = cache.NewRedis(client, cfg.Cache.KeyPrefix, time.Duration(cfg.Cache.TTLSeconds)*time.Second)
	default:
		return nil, fmt.Errorf("unknown embedding cache: %s", cfg.Cache.Type)
	}
	return cache.Wrap(emb, backend), nil
}

func (a *App) store(cfg config.VectorStoreConfig) (domain.VectorStore, error) {
	switch cfg.Type {
	case "memory":
		return memory.NewStorage(), nil
	case "sqlite", "":
		path := "data/index/examples.db"
		if cfg.SQLite != nil && cfg.SQLite.Path != "" {
			path = cfg.SQLite.Path
		}
		s, err := sqlite.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open example index: %w", err)
		}
		a.closers = append(a.closers, s)
		return s, nil
	case "qdrant":
		q := cfg.Qdrant
		if q == nil {
			return nil, errors.New("qdrant config missing")
		}
		return qdrant.NewStorage(qdrant.Config{
			URL:        q.URL,
			APIKey:     q.APIKey,
			Collection: q.Collection,
			Timeout:    time.Duration(q.TimeoutSecs) * time.Second,
		}), nil
	}
	return nil, fmt.Errorf("unknown vector store: %s", cfg.Type)
}

// IngestInitial indexes the configured starter notes. The file must exist.
func (a *App) IngestInitial(ctx context.Context) error {
	path := a.Config.Data.InitialNotes
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("initial file '%s' not found: %w", path, err)
	}
	added, err := a.Index.Ingest(ctx, path)
	if err != nil {
		return fmt.Errorf("ingest initial notes: %w", err)
	}
	a.Logger.Info("initial notes ready", "path", path, "added", added)
	return nil
}

// Close releases stores, caches and model sessions in reverse order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i].Close())
	}
	a.closers = nil
	return errors.Join(errs...)
}
