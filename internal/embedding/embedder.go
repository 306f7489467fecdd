package embedding

import (
	"math"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"translator-notes/internal/domain"
)

// Embedder converts free text into a numeric vector representation.
type Embedder = domain.Embedder

// NormalizeText applies NFKC normalisation, trims surrounding space and drops
// control characters other than newline and tab.
func NormalizeText(text string) string {
	normed := strings.TrimSpace(norm.NFKC.String(text))
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, normed)
}

// L2Normalize scales v to unit length in place. Zero vectors are left as is.
func L2Normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	inv := 1 / math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) * inv)
	}
}
