package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "modernc.org/sqlite" // register pure-Go SQLite driver

	"translator-notes/internal/domain"
	"translator-notes/internal/embedding"
	"translator-notes/internal/vectorstore"
)

const schema = `
CREATE TABLE IF NOT EXISTS examples (
    seq       INTEGER PRIMARY KEY AUTOINCREMENT,
    id        TEXT NOT NULL UNIQUE,
    note      TEXT NOT NULL,
    meta      TEXT NOT NULL,
    embedding BLOB NOT NULL
);
CREATE TABLE IF NOT EXISTS index_meta (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

const (
	metaEmbedder  = "embedder"
	metaDimension = "dimension"
)

// Storage is a durable vector store backed by a single SQLite file.
// Similarity search is brute-force cosine distance over the stored blobs.
type Storage struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path. Pass ":memory:" for
// a throwaway store.
func Open(path string) (*Storage, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create index dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection keeps :memory: databases coherent and serialises writers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("configure sqlite: %w", err)
	}
	s, err := New(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing database handle and ensures the schema exists.
func New(db *sql.DB) (*Storage, error) {
	if db == nil {
		return nil, errors.New("sqlite: db is nil")
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("sqlite: ensure schema: %w", err)
	}
	return &Storage{db: db}, nil
}

// Close closes the underlying database.
func (s *Storage) Close() error { return s.db.Close() }

func (s *Storage) Init(ctx context.Context, embedder string) error {
	current, ok, err := s.meta(ctx, metaEmbedder)
	if err != nil {
		return err
	}
	if ok && current != embedder {
		n, err := s.Count(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: index has %q, got %q", domain.ErrEmbedderMismatch, current, embedder)
		}
	}
	return s.setMeta(ctx, s.db, metaEmbedder, embedder)
}

func (s *Storage) Get(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	q := `SELECT id FROM examples WHERE id IN (?` + strings.Repeat(",?", len(ids)-1) + `)`
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *Storage) Upsert(ctx context.Context, docs []domain.ExampleDocument, vectors [][]float32) error {
	if len(docs) != len(vectors) {
		return fmt.Errorf("documents and vectors length mismatch: %d != %d", len(docs), len(vectors))
	}
	if len(docs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	dim := 0
	var raw string
	err = tx.QueryRowContext(ctx, `SELECT value FROM index_meta WHERE key = ?`, metaDimension).Scan(&raw)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return err
	default:
		if dim, err = strconv.Atoi(raw); err != nil {
			return fmt.Errorf("sqlite: corrupt dimension %q", raw)
		}
	}
	for _, v := range vectors {
		if dim == 0 {
			dim = len(v)
		}
		if len(v) != dim {
			return fmt.Errorf("%w: %d vs %d", domain.ErrDimensionMismatch, len(v), dim)
		}
	}
	if err := s.setMeta(ctx, tx, metaDimension, strconv.Itoa(dim)); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO examples(id, note, meta, embedding) VALUES(?, ?, ?, ?) ON CONFLICT(id) DO NOTHING`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, d := range docs {
		meta, err := json.Marshal(d.Metadata)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, d.ID, d.Note, string(meta), embedding.EncodeVector(vectors[i])); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Storage) Search(ctx context.Context, vector []float32, topK int) ([]domain.SearchResult, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, note, meta, embedding FROM examples ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var candidates []vectorstore.Candidate
	for rows.Next() {
		var (
			c    vectorstore.Candidate
			meta string
			blob []byte
		)
		if err := rows.Scan(&c.Document.ID, &c.Document.Note, &meta, &blob); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(meta), &c.Document.Metadata); err != nil {
			return nil, fmt.Errorf("sqlite: decode metadata of %s: %w", c.Document.ID, err)
		}
		if c.Vector, err = embedding.DecodeVector(blob); err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return vectorstore.Nearest(vector, candidates, topK)
}

func (s *Storage) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM examples`).Scan(&n)
	return n, err
}

func (s *Storage) Clear(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, `DELETE FROM examples`); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM index_meta WHERE key = ?`, metaDimension); err != nil {
		return err
	}
	return tx.Commit()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Storage) setMeta(ctx context.Context, db execer, key, value string) error {
	_, err := db.ExecContext(ctx, `INSERT INTO index_meta(key, value) VALUES(?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

func (s *Storage) meta(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM index_meta WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

var _ domain.VectorStore = (*Storage)(nil)
