package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"translator-notes/internal/config"
	"translator-notes/internal/domain"
)

func writeCorpora(t *testing.T) *config.AppConfig {
	t.Helper()
	dir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
		return p
	}
	cfg, err := config.Load(filepath.Join(dir, "absent.yaml"))
	require.NoError(t, err)
	cfg.Data.Verses = write("verses.tsv", "GEN 1:1\tIn the beginning...\nGEN 1:2\tThe earth was formless\n")
	cfg.Data.Templates = write("templates.txt", "Template\nConsider the cultural context of...\n")
	cfg.Data.InitialNotes = write("notes.tsv", "Note\tReference\tID\tTags\tSupportReference\tQuote\tOccurrence\n"+
		"Explain the beginning\tGEN 1:1\ta1\t\t\t\t1\n")
	cfg.VectorStore.SQLite.Path = filepath.Join(dir, "index", "examples.db")
	cfg.Generator.APIKeyEnv = "TRANSLATOR_NOTES_TEST_KEY"
	t.Setenv("TRANSLATOR_NOTES_TEST_KEY", "")
	return cfg
}

func TestBuildDefaultStack(t *testing.T) {
	ctx := context.Background()
	cfg := writeCorpora(t)

	a, err := Build(ctx, cfg, nil)
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.IngestInitial(ctx))
	n, err := a.Service.IndexSize(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, a.Templates.Len())

	p, err := a.Service.AssemblePrompt(ctx, "beginning", "GEN 1:1")
	require.NoError(t, err)
	assert.Contains(t, p, "Explain the beginning")

	_, err = a.Service.Draft(ctx, "beginning", "GEN 1:1")
	require.ErrorIs(t, err, domain.ErrGeneration)
}

func TestBuildPersistsAcrossRestarts(t *testing.T) {
	ctx := context.Background()
	cfg := writeCorpora(t)
	cfg.Embedder.Cache = config.CacheConfig{Type: "disk", Dir: filepath.Join(t.TempDir(), "cache")}

	a, err := Build(ctx, cfg, nil)
	require.NoError(t, err)
	require.NoError(t, a.IngestInitial(ctx))
	require.NoError(t, a.Close())

	a, err = Build(ctx, cfg, nil)
	require.NoError(t, err)
	defer a.Close()
	n, err := a.Index.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	cfg.Embedder.Dimension = 64
	_, err = Build(ctx, cfg, nil)
	require.ErrorIs(t, err, domain.ErrEmbedderMismatch)
}

func TestBuildRedisCacheAndMemoryStore(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	cfg := writeCorpora(t)
	cfg.VectorStore.Type = "memory"
	cfg.Embedder.Cache = config.CacheConfig{Type: "redis", RedisAddr: mr.Addr()}

	a, err := Build(ctx, cfg, nil)
	require.NoError(t, err)
	defer a.Close()
	require.NoError(t, a.IngestInitial(ctx))
	assert.NotEmpty(t, mr.Keys())
}

func TestIngestInitialMissingFile(t *testing.T) {
	cfg := writeCorpora(t)
	cfg.VectorStore.Type = "memory"
	cfg.Data.InitialNotes = filepath.Join(t.TempDir(), "gone.tsv")

	a, err := Build(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer a.Close()
	require.Error(t, a.IngestInitial(context.Background()))
}

func TestBuildMissingVerses(t *testing.T) {
	cfg := writeCorpora(t)
	cfg.Data.Verses = filepath.Join(t.TempDir(), "none.tsv")
	_, err := Build(context.Background(), cfg, nil)
	require.Error(t, err)
}
