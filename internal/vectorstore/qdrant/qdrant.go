package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"translator-notes/internal/domain"
)

// pointNamespace derives stable point UUIDs from document ids, which Qdrant
// would otherwise reject.
var pointNamespace = uuid.MustParse("6f1d3c52-8a1e-4d1e-9a55-0b7f3c0e9a21")

// Storage is a minimal REST client to Qdrant.
// It uses cosine distance and creates the collection on first write.
type Storage struct {
	url        string
	apiKey     string
	collection string
	client     *http.Client

	mu       sync.Mutex
	embedder string
	created  bool
}

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

func NewStorage(cfg Config) *Storage {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Storage{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
	}
}

// PointID returns the Qdrant point id used for a document id.
func PointID(id string) string {
	return uuid.NewSHA1(pointNamespace, []byte(id)).String()
}

type payload struct {
	DocID    string                 `json:"doc_id"`
	Note     string                 `json:"note"`
	Embedder string                 `json:"embedder"`
	Metadata domain.ExampleMetadata `json:"metadata"`
}

type point struct {
	ID      string  `json:"id"`
	Payload payload `json:"payload"`
	Score   float64 `json:"score"`
}

func (s *Storage) Init(ctx context.Context, embedder string) error {
	var resp struct {
		Result struct {
			Points []point `json:"points"`
		} `json:"result"`
	}
	status, err := s.do(ctx, http.MethodPost, s.collectionURL("/points/scroll"), map[string]any{"limit": 1, "with_payload": true}, &resp)
	if status == http.StatusNotFound {
		s.mu.Lock()
		s.embedder, s.created = embedder, false
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		return err
	}
	if len(resp.Result.Points) > 0 && resp.Result.Points[0].Payload.Embedder != embedder {
		return fmt.Errorf("%w: index has %q, got %q", domain.ErrEmbedderMismatch, resp.Result.Points[0].Payload.Embedder, embedder)
	}
	s.mu.Lock()
	s.embedder, s.created = embedder, true
	s.mu.Unlock()
	return nil
}

func (s *Storage) Get(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	pointIDs := make([]string, len(ids))
	for i, id := range ids {
		pointIDs[i] = PointID(id)
	}
	var resp struct {
		Result []point `json:"result"`
	}
	status, err := s.do(ctx, http.MethodPost, s.collectionURL("/points"), map[string]any{"ids": pointIDs, "with_payload": true}, &resp)
	if status == http.StatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(resp.Result))
	for _, p := range resp.Result {
		out = append(out, p.Payload.DocID)
	}
	return out, nil
}

func (s *Storage) Upsert(ctx context.Context, docs []domain.ExampleDocument, vectors [][]float32) error {
	if len(docs) != len(vectors) {
		return errors.New("documents and vectors length mismatch")
	}
	if len(docs) == 0 {
		return nil
	}
	if err := s.ensureCollection(ctx, len(vectors[0])); err != nil {
		return err
	}
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	existing, err := s.Get(ctx, ids)
	if err != nil {
		return err
	}
	skip := make(map[string]struct{}, len(existing))
	for _, id := range existing {
		skip[id] = struct{}{}
	}
	s.mu.Lock()
	embedder := s.embedder
	s.mu.Unlock()
	points := make([]map[string]any, 0, len(docs))
	for i, d := range docs {
		if _, ok := skip[d.ID]; ok {
			continue
		}
		points = append(points, map[string]any{
			"id":      PointID(d.ID),
			"vector":  vectors[i],
			"payload": payload{DocID: d.ID, Note: d.Note, Embedder: embedder, Metadata: d.Metadata},
		})
	}
	if len(points) == 0 {
		return nil
	}
	_, err = s.do(ctx, http.MethodPut, s.collectionURL("/points?wait=true"), map[string]any{"points": points}, nil)
	return err
}

func (s *Storage) Search(ctx context.Context, vector []float32, topK int) ([]domain.SearchResult, error) {
	req := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}
	var resp struct {
		Result []point `json:"result"`
	}
	status, err := s.do(ctx, http.MethodPost, s.collectionURL("/points/search"), req, &resp)
	if status == http.StatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	results := make([]domain.SearchResult, 0, len(resp.Result))
	for _, r := range resp.Result {
		results = append(results, domain.SearchResult{
			Document: domain.ExampleDocument{ID: r.Payload.DocID, Note: r.Payload.Note, Metadata: r.Payload.Metadata},
			Distance: 1 - r.Score,
		})
	}
	return results, nil
}

func (s *Storage) Count(ctx context.Context) (int, error) {
	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	status, err := s.do(ctx, http.MethodPost, s.collectionURL("/points/count"), map[string]any{"exact": true}, &resp)
	if status == http.StatusNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return resp.Result.Count, nil
}

// Clear drops the collection; it is recreated on the next write.
func (s *Storage) Clear(ctx context.Context) error {
	status, err := s.do(ctx, http.MethodDelete, s.collectionURL(""), nil, nil)
	if err != nil && status != http.StatusNotFound {
		return err
	}
	s.mu.Lock()
	s.created = false
	s.mu.Unlock()
	return nil
}

func (s *Storage) ensureCollection(ctx context.Context, dimension int) error {
	s.mu.Lock()
	created := s.created
	s.mu.Unlock()
	if created {
		return nil
	}
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	status, err := s.do(ctx, http.MethodGet, s.collectionURL(""), nil, nil)
	if status == http.StatusNotFound {
		body := map[string]any{
			"vectors": map[string]any{
				"size":     dimension,
				"distance": "Cosine",
			},
		}
		_, err = s.do(ctx, http.MethodPut, s.collectionURL(""), body, nil)
	}
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.created = true
	s.mu.Unlock()
	return nil
}

func (s *Storage) collectionURL(suffix string) string {
	return fmt.Sprintf("%s/collections/%s%s", s.url, s.collection, suffix)
}

// do sends a JSON request and decodes the response into out. The HTTP status
// is returned alongside any error so callers can treat 404 specially.
func (s *Storage) do(ctx context.Context, method, url string, body any, out any) (int, error) {
	var rd *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		rd = bytes.NewReader(data)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("qdrant %s %s failed: %s", method, url, resp.Status)
	}
	if out != nil {
		return resp.StatusCode, json.NewDecoder(resp.Body).Decode(out)
	}
	return resp.StatusCode, nil
}

var _ domain.VectorStore = (*Storage)(nil)
