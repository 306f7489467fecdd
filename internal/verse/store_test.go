package verse

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"translator-notes/internal/domain"
)

func writeCorpus(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "verses.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAndExactLookup(t *testing.T) {
	path := writeCorpus(t, "GEN 1:1\tIn the beginning God created the heavens and the earth.\n"+
		"JHN 3:16\tFor God so loved the world\n"+
		"broken-row\n")
	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, "GEN 1:1: In the beginning God created the heavens and the earth.", s.Lookup("GEN 1:1"))
	assert.Equal(t, "JHN 3:16: For God so loved the world", s.Lookup("JHN 3:16"))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
}

func TestDuplicateReferenceOverwrites(t *testing.T) {
	s, err := Load(writeCorpus(t, "GEN 1:1\tfirst\nGEN 1:1\tsecond\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, "GEN 1:1: second", s.Lookup("GEN 1:1"))
}

func TestFuzzyLookupPrefersCharacterOverlap(t *testing.T) {
	s := NewStore()
	s.Add(domain.VerseEntry{Reference: "JHN 3:16", Text: "a"})
	s.Add(domain.VerseEntry{Reference: "GEN 1:1", Text: "b"})
	assert.Equal(t, "JHN 3:16: a", s.Lookup("JHN 3:17"))
}

func TestFuzzyLookupIgnoresOrderAndRepetition(t *testing.T) {
	s := NewStore()
	s.Add(domain.VerseEntry{Reference: "ABC", Text: "x"})
	s.Add(domain.VerseEntry{Reference: "XYZ", Text: "y"})
	assert.Equal(t, "ABC: x", s.Lookup("CCCBBA"))
}

func TestFuzzyLookupTieBreaksOnLoadOrder(t *testing.T) {
	s := NewStore()
	s.Add(domain.VerseEntry{Reference: "AB", Text: "first"})
	s.Add(domain.VerseEntry{Reference: "AC", Text: "second"})
	// "A" overlaps both keys by one character.
	assert.Equal(t, "AB: first", s.Lookup("A"))
}

func TestLookupOnEmptyStore(t *testing.T) {
	s := NewStore()
	assert.Equal(t, "REV 22:21: Verse not found.", s.Lookup("REV 22:21"))
}

func TestLoadKeepsQuotedTextOnItsOwnLine(t *testing.T) {
	path := writeCorpus(t, "GEN 1:3\t\"Let there be light,\" and there was light.\r\n"+
		"GEN 1:4\tAnd God saw the light, that it was \"good\r\n"+
		"GEN 1:5\tGod called the light Day.\r\n")
	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, `GEN 1:3: "Let there be light," and there was light.`, s.Lookup("GEN 1:3"))
	assert.Equal(t, `GEN 1:4: And God saw the light, that it was "good`, s.Lookup("GEN 1:4"))
	assert.Equal(t, "GEN 1:5: God called the light Day.", s.Lookup("GEN 1:5"))
}
