package cache

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zeebo/blake3"

	"translator-notes/internal/embedding"
)

// Backend stores encoded vectors by key.
type Backend interface {
	Get(ctx context.Context, key string) ([]float32, bool, error)
	Set(ctx context.Context, key string, vec []float32) error
}

// Embedder wraps another embedder and reuses vectors already computed for
// the same model and normalised text.
type Embedder struct {
	inner   embedding.Embedder
	backend Backend
}

// Wrap returns inner with a cache in front of it.
func Wrap(inner embedding.Embedder, backend Backend) *Embedder {
	return &Embedder{inner: inner, backend: backend}
}

// Name returns the wrapped embedder's name so cached and uncached vectors share an index.
func (e *Embedder) Name() string { return e.inner.Name() }

// Dimension returns the wrapped embedder's dimension.
func (e *Embedder) Dimension() int { return e.inner.Dimension() }

// Embed returns the cached vector for text or computes and stores it.
// Cache failures fall through to the wrapped embedder.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := Key(e.inner.Name(), text)
	if vec, ok, err := e.backend.Get(ctx, key); err == nil && ok {
		return vec, nil
	}
	vec, err := e.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	_ = e.backend.Set(ctx, key, vec)
	return vec, nil
}

// Key derives the cache key for a model and text.
func Key(model, text string) string {
	h := blake3.New()
	_, _ = h.Write([]byte(model))
	_, _ = h.Write([]byte{'|'})
	_, _ = h.Write([]byte(embedding.NormalizeText(text)))
	return hex.EncodeToString(h.Sum(nil))
}

// Memory is a process-local backend.
type Memory struct {
	mu   sync.RWMutex
	vecs map[string][]float32
}

// NewMemory creates an empty in-memory backend.
func NewMemory() *Memory { return &Memory{vecs: make(map[string][]float32)} }

func (m *Memory) Get(_ context.Context, key string) ([]float32, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	vec, ok := m.vecs[key]
	if !ok {
		return nil, false, nil
	}
	return cloneVector(vec), true, nil
}

func (m *Memory) Set(_ context.Context, key string, vec []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vecs[key] = cloneVector(vec)
	return nil
}

// Disk keeps one <key>.bin file per vector under a directory.
type Disk struct {
	dir string
}

// NewDisk creates the cache directory if needed.
func NewDisk(dir string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &Disk{dir: dir}, nil
}

func (d *Disk) Get(_ context.Context, key string) ([]float32, bool, error) {
	data, err := os.ReadFile(filepath.Join(d.dir, key+".bin"))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	vec, err := embedding.DecodeVector(data)
	if err != nil {
		return nil, false, err
	}
	return vec, true, nil
}

func (d *Disk) Set(_ context.Context, key string, vec []float32) error {
	path := filepath.Join(d.dir, key+".bin")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, embedding.EncodeVector(vec), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Redis stores vectors in a shared redis instance.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis wraps a redis client. A zero ttl keeps entries forever.
func NewRedis(client *redis.Client, prefix string, ttl time.Duration) *Redis {
	if prefix == "" {
		prefix = "emb:"
	}
	return &Redis{client: client, prefix: prefix, ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, key string) ([]float32, bool, error) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	vec, err := embedding.DecodeVector(data)
	if err != nil {
		return nil, false, err
	}
	return vec, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, vec []float32) error {
	return r.client.Set(ctx, r.prefix+key, embedding.EncodeVector(vec), r.ttl).Err()
}

func cloneVector(vec []float32) []float32 {
	out := make([]float32, len(vec))
	copy(out, vec)
	return out
}
