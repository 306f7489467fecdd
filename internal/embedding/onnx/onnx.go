package onnx

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
	ort "github.com/yalue/onnxruntime_go"

	"translator-notes/internal/embedding"
)

// Config points at a sentence-transformer exported to ONNX together with its
// HuggingFace tokenizer.json.
type Config struct {
	SharedLibrary string
	ModelPath     string
	TokenizerPath string
	ModelID       string
	MaxSeqLen     int
	Dimension     int
}

// Embedder runs a local sentence-transformer (all-MiniLM-L6-v2 by default)
// through onnxruntime and mean-pools the last hidden state.
type Embedder struct {
	cfg     Config
	tk      *tokenizer.Tokenizer
	mu      sync.Mutex
	session *ort.DynamicAdvancedSession
}

var (
	envOnce sync.Once
	envErr  error
)

// New loads the tokenizer and model.
func New(cfg Config) (*Embedder, error) {
	if cfg.ModelPath == "" || cfg.TokenizerPath == "" {
		return nil, errors.New("onnx embedder requires model_path and tokenizer_path")
	}
	if cfg.ModelID == "" {
		cfg.ModelID = filepath.Base(filepath.Dir(cfg.ModelPath))
	}
	if cfg.MaxSeqLen <= 0 {
		cfg.MaxSeqLen = 256
	}
	if cfg.Dimension <= 0 {
		cfg.Dimension = 384
	}
	envOnce.Do(func() {
		if cfg.SharedLibrary != "" {
			ort.SetSharedLibraryPath(cfg.SharedLibrary)
		}
		if !ort.IsInitialized() {
			envErr = ort.InitializeEnvironment()
		}
	})
	if envErr != nil {
		return nil, fmt.Errorf("init onnxruntime: %w", envErr)
	}
	tk, err := pretrained.FromFile(cfg.TokenizerPath)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer: %w", err)
	}
	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{"last_hidden_state"}, nil)
	if err != nil {
		return nil, fmt.Errorf("load onnx model: %w", err)
	}
	return &Embedder{cfg: cfg, tk: tk, session: session}, nil
}

// Name identifies the model.
func (e *Embedder) Name() string { return "onnx:" + e.cfg.ModelID }

// Dimension returns the hidden size of the model.
func (e *Embedder) Dimension() int { return e.cfg.Dimension }

// Embed tokenizes text, runs the model and returns the pooled, normalised vector.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	enc, err := e.tk.EncodeSingle(embedding.NormalizeText(text), true)
	if err != nil {
		return nil, fmt.Errorf("tokenize: %w", err)
	}
	ids, mask, types := truncate(enc.Ids, e.cfg.MaxSeqLen), truncate(enc.AttentionMask, e.cfg.MaxSeqLen), truncate(enc.TypeIds, e.cfg.MaxSeqLen)
	n := int64(len(ids))
	if n == 0 {
		return make([]float32, e.cfg.Dimension), nil
	}
	shape := ort.NewShape(1, n)
	idsT, err := ort.NewTensor(shape, ids)
	if err != nil {
		return nil, err
	}
	defer idsT.Destroy()
	maskT, err := ort.NewTensor(shape, mask)
	if err != nil {
		return nil, err
	}
	defer maskT.Destroy()
	typesT, err := ort.NewTensor(shape, types)
	if err != nil {
		return nil, err
	}
	defer typesT.Destroy()
	out, err := ort.NewEmptyTensor[float32](ort.NewShape(1, n, int64(e.cfg.Dimension)))
	if err != nil {
		return nil, err
	}
	defer out.Destroy()

	e.mu.Lock()
	err = e.session.Run([]ort.Value{idsT, maskT, typesT}, []ort.Value{out})
	e.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("run onnx model: %w", err)
	}
	vec := meanPool(out.GetData(), mask, e.cfg.Dimension)
	embedding.L2Normalize(vec)
	return vec, nil
}

// Close releases the onnxruntime session.
func (e *Embedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return nil
	}
	err := e.session.Destroy()
	e.session = nil
	return err
}

func truncate(in []int, limit int) []int64 {
	if len(in) > limit {
		in = in[:limit]
	}
	out := make([]int64, len(in))
	for i, v := range in {
		out[i] = int64(v)
	}
	return out
}

// meanPool averages token vectors of hidden (seq x dim, row-major) whose mask is set.
func meanPool(hidden []float32, mask []int64, dim int) []float32 {
	out := make([]float32, dim)
	var count float32
	for t, m := range mask {
		if m == 0 {
			continue
		}
		row := hidden[t*dim : (t+1)*dim]
		for j, v := range row {
			out[j] += v
		}
		count++
	}
	if count == 0 {
		return out
	}
	for j := range out {
		out[j] /= count
	}
	return out
}
