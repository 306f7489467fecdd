package tabfile

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, in string) [][]string {
	t.Helper()
	r := NewReader(strings.NewReader(in))
	var rows [][]string
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			return rows
		}
		require.NoError(t, err)
		rows = append(rows, row)
	}
}

func TestQuotesAreLiteral(t *testing.T) {
	rows := readAll(t, "GEN 1:3\t\"Let there be light,\" and there was light.\n"+
		"GEN 1:4\tGod called it \"good\n"+
		"GEN 1:5\t\"\n")
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"GEN 1:3", `"Let there be light," and there was light.`}, rows[0])
	assert.Equal(t, []string{"GEN 1:4", `God called it "good`}, rows[1])
	assert.Equal(t, []string{"GEN 1:5", `"`}, rows[2])
}

func TestCRLFAndBlankLines(t *testing.T) {
	rows := readAll(t, "a\tb\r\n\r\nc\t\td\r\n")
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"a", "b"}, rows[0])
	assert.True(t, Blank(rows[1]))
	assert.Equal(t, []string{"c", "", "d"}, rows[2])
	assert.False(t, Blank(rows[2]))
}

func TestLineNumbers(t *testing.T) {
	r := NewReader(strings.NewReader("x\ny"))
	_, err := r.Read()
	require.NoError(t, err)
	_, err = r.Read()
	require.NoError(t, err)
	assert.Equal(t, 2, r.Line())
	_, err = r.Read()
	assert.ErrorIs(t, err, io.EOF)
}

func TestLineTooLong(t *testing.T) {
	r := NewReader(strings.NewReader(strings.Repeat("x", MaxLine+1)))
	_, err := r.Read()
	require.Error(t, err)
	assert.NotErrorIs(t, err, io.EOF)
}
