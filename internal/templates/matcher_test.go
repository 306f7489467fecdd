package templates

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadStripsHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.tsv")
	content := "Template\n  Consider the cultural context of this phrase.  \nIf it would be clearer in your language, use a simile.\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Len())

	out := m.TopK("cultural context", 10)
	require.Len(t, out, 2)
	assert.Equal(t, "Consider the cultural context of this phrase.", out[0])
}

func TestLoadKeepsFirstLineWithoutHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.tsv")
	require.NoError(t, os.WriteFile(path, []byte("Alternate translation: [text]\n"), 0o644))
	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Len())
}

func TestTopKOrdersBySymmetricDifference(t *testing.T) {
	m := New([]string{
		"the word here refers to something else entirely",
		"The beginning of the story",
		"beginning context",
	})
	out := m.TopK("Beginning CONTEXT", 3)
	assert.Equal(t, []string{
		"beginning context",
		"The beginning of the story",
		"the word here refers to something else entirely",
	}, out)
}

func TestTopKStableForTies(t *testing.T) {
	m := New([]string{"alpha one", "beta two", "gamma three"})
	// Every line shares nothing with the query and has two words.
	out := m.TopK("zzz", 3)
	assert.Equal(t, []string{"alpha one", "beta two", "gamma three"}, out)
}

func TestTopKBounds(t *testing.T) {
	lines := make([]string, 15)
	for i := range lines {
		lines[i] = fmt.Sprintf("template %d", i)
	}
	m := New(lines)
	assert.Len(t, m.TopK("template", 10), 10)
	assert.Len(t, m.TopK("template", 20), 15)
	assert.Empty(t, m.TopK("template", 0))
	assert.Empty(t, New(nil).TopK("template", 10))
}

func TestLoadQuotedAndCRLFLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.tsv")
	content := "Template\r\n\"Alternate translation: \"[text]\"\r\nHere \"heart\" refers to the inner person.\r\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	m, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 2, m.Len())
	assert.Equal(t, []string{`Here "heart" refers to the inner person.`, `"Alternate translation: "[text]"`},
		m.TopK(`here "heart" refers to the inner person.`, 10))
}
