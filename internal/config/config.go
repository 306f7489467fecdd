package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr        string   `yaml:"addr"`
	StaticDir   string   `yaml:"static_dir"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// DataConfig points at the corpora loaded at startup.
type DataConfig struct {
	Verses       string `yaml:"verses"`
	Templates    string `yaml:"templates"`
	InitialNotes string `yaml:"initial_notes"`
}

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries"`
}

// ONNXEmbedderConfig configures the local sentence-transformer embedder.
type ONNXEmbedderConfig struct {
	SharedLibrary string `yaml:"shared_library"`
	ModelPath     string `yaml:"model_path"`
	TokenizerPath string `yaml:"tokenizer_path"`
	ModelID       string `yaml:"model_id"`
	MaxSeqLen     int    `yaml:"max_seq_len"`
	Dimension     int    `yaml:"dimension"`
}

// CacheConfig wraps the embedder with a vector cache. Type is one of
// none, memory, disk or redis.
type CacheConfig struct {
	Type       string `yaml:"type"`
	Dir        string `yaml:"dir"`
	RedisAddr  string `yaml:"redis_addr"`
	RedisDB    int    `yaml:"redis_db"`
	KeyPrefix  string `yaml:"key_prefix"`
	TTLSeconds int    `yaml:"ttl_secs"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type      string                `yaml:"type"`
	Dimension int                   `yaml:"dimension"`
	OpenAI    *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
	ONNX      *ONNXEmbedderConfig   `yaml:"onnx,omitempty"`
	Cache     CacheConfig           `yaml:"cache"`
}

// VectorStoreConfig selects and configures the vector store implementation.
type VectorStoreConfig struct {
	Type   string        `yaml:"type"`
	SQLite *SQLiteConfig `yaml:"sqlite,omitempty"`
	Qdrant *QdrantConfig `yaml:"qdrant,omitempty"`
}

// SQLiteConfig locates the on-disk example index.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	Collection  string `yaml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// GeneratorConfig configures the chat completion backend.
type GeneratorConfig struct {
	BaseURL           string  `yaml:"base_url"`
	APIKeyEnv         string  `yaml:"api_key_env"`
	Model             string  `yaml:"model"`
	SystemPrompt      string  `yaml:"system_prompt"`
	Temperature       float64 `yaml:"temperature"`
	TimeoutSecs       int     `yaml:"timeout_secs"`
	MaxRetries        int     `yaml:"max_retries"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// IngestConfig schedules periodic re-ingestion. An empty schedule disables it.
type IngestConfig struct {
	Schedule string   `yaml:"schedule"`
	Paths    []string `yaml:"paths"`
}

// LoggingConfig selects log level (debug, info, warn, error) and format (json, text).
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Server      ServerConfig      `yaml:"server"`
	Data        DataConfig        `yaml:"data"`
	Embedder    EmbedderConfig    `yaml:"embedder"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Generator   GeneratorConfig   `yaml:"generator"`
	Ingest      IngestConfig      `yaml:"ingest"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyConfigDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/translator-notes/config.yaml.
// If neither exists, it writes defaults to the user path and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate rejects unknown implementation names.
func (c *AppConfig) Validate() error {
	switch c.Embedder.Type {
	case "hash", "openai", "onnx":
	default:
		return fmt.Errorf("unknown embedder type %q", c.Embedder.Type)
	}
	switch c.Embedder.Cache.Type {
	case "", "none", "memory", "disk", "redis":
	default:
		return fmt.Errorf("unknown embedding cache type %q", c.Embedder.Cache.Type)
	}
	switch c.VectorStore.Type {
	case "sqlite", "memory", "qdrant":
	default:
		return fmt.Errorf("unknown vector store type %q", c.VectorStore.Type)
	}
	if o := c.Embedder.ONNX; c.Embedder.Type == "onnx" && (o == nil || o.ModelPath == "" || o.TokenizerPath == "") {
		return errors.New("onnx embedder needs model_path and tokenizer_path")
	}
	if c.Ingest.Schedule != "" && len(c.Ingest.Paths) == 0 {
		return errors.New("ingest schedule set without paths")
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("unknown log format %q", c.Logging.Format)
	}
	return nil
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "translator-notes", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Server: ServerConfig{Addr: ":8000", StaticDir: "frontend/build", CORSOrigins: []string{"*"}},
		Data: DataConfig{
			Verses:       "data/bible_verses.tsv",
			Templates:    "data/templates.txt",
			InitialNotes: "data/translation_notes.tsv",
		},
		Embedder:    EmbedderConfig{Type: "hash", Dimension: 512, Cache: CacheConfig{Type: "memory"}},
		VectorStore: VectorStoreConfig{Type: "sqlite"},
		Generator:   GeneratorConfig{Temperature: 0.8},
		Logging:     LoggingConfig{Level: "info", Format: "json"},
	}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8000"
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "hash"
	}
	if cfg.Embedder.Dimension == 0 {
		cfg.Embedder.Dimension = 512
	}
	if cfg.Embedder.Type == "openai" {
		if cfg.Embedder.OpenAI == nil {
			cfg.Embedder.OpenAI = &OpenAIEmbedderConfig{}
		}
		o := cfg.Embedder.OpenAI
		if o.BaseURL == "" {
			o.BaseURL = "https://api.openai.com/v1"
		}
		if o.APIKeyEnv == "" {
			o.APIKeyEnv = "OPENAI_API_KEY"
		}
		if o.Model == "" {
			o.Model = "text-embedding-3-small"
		}
		if o.TimeoutSecs == 0 {
			o.TimeoutSecs = 30
		}
		if o.MaxRetries == 0 {
			o.MaxRetries = 5
		}
	}
	if cfg.Embedder.Type == "onnx" {
		if cfg.Embedder.ONNX == nil {
			cfg.Embedder.ONNX = &ONNXEmbedderConfig{}
		}
		if cfg.Embedder.ONNX.ModelID == "" {
			cfg.Embedder.ONNX.ModelID = "all-MiniLM-L6-v2"
		}
	}
	switch cfg.Embedder.Cache.Type {
	case "disk":
		if cfg.Embedder.Cache.Dir == "" {
			cfg.Embedder.Cache.Dir = "data/embedding_cache"
		}
	case "redis":
		if cfg.Embedder.Cache.RedisAddr == "" {
			cfg.Embedder.Cache.RedisAddr = "localhost:6379"
		}
	}
	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "sqlite"
	}
	if cfg.VectorStore.Type == "sqlite" {
		if cfg.VectorStore.SQLite == nil {
			cfg.VectorStore.SQLite = &SQLiteConfig{}
		}
		if cfg.VectorStore.SQLite.Path == "" {
			cfg.VectorStore.SQLite.Path = "data/index/examples.db"
		}
	}
	if cfg.VectorStore.Type == "qdrant" {
		if cfg.VectorStore.Qdrant == nil {
			cfg.VectorStore.Qdrant = &QdrantConfig{}
		}
		q := cfg.VectorStore.Qdrant
		if q.URL == "" {
			q.URL = "http://localhost:6333"
		}
		if q.Collection == "" {
			q.Collection = "translation_notes"
		}
		if q.TimeoutSecs == 0 {
			q.TimeoutSecs = 15
		}
	}
	g := &cfg.Generator
	if g.BaseURL == "" {
		g.BaseURL = "https://api.openai.com/v1"
	}
	if g.APIKeyEnv == "" {
		g.APIKeyEnv = "OPENAI_API_KEY"
	}
	if g.Model == "" {
		g.Model = "gpt-4o-mini"
	}
	if g.TimeoutSecs == 0 {
		g.TimeoutSecs = 120
	}
	if g.MaxRetries == 0 {
		g.MaxRetries = 3
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}
