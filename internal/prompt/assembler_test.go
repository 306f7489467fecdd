package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssembleExactLayout(t *testing.T) {
	got := Assemble("beginning context", "GEN 1:1", "In the beginning...",
		[]string{"note one", "note two"}, []string{"Consider the cultural context of..."})

	want := "User Query: beginning context\n\n" +
		"Bible Verse:\nGEN 1:1: In the beginning...\n\n" +
		"Relevant Examples:\nnote one\nnote two\n\n" +
		"Example templates (adapt this style):\nConsider the cultural context of...\n\n" +
		Closing
	assert.Equal(t, want, got)
}

func TestAssembleOrderWithEmptyContext(t *testing.T) {
	got := Assemble("what does this mean", "ROM 8:28", "", nil, nil)

	qi := strings.Index(got, "what does this mean")
	ri := strings.Index(got, "ROM 8:28")
	ci := strings.Index(got, Closing)
	require.True(t, qi >= 0 && ri >= 0 && ci >= 0, got)
	assert.Less(t, qi, ri)
	assert.Less(t, ri, ci)
	assert.True(t, strings.HasSuffix(got, "NEW TRANSLATOR NOTES:\n"))
	assert.Contains(t, got, ExamplesLabel+"\n\n"+TemplatesLabel+"\n\n")
}
