package templates

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// DefaultTopK is the number of templates attached to every retrieval.
const DefaultTopK = 10

const headerPrefix = "Template"

// Matcher ranks style templates by word overlap with a query.
type Matcher struct {
	lines []string
	words []map[string]struct{}
}

// New builds a matcher over the given template lines.
func New(lines []string) *Matcher {
	m := &Matcher{lines: make([]string, len(lines)), words: make([]map[string]struct{}, len(lines))}
	for i, l := range lines {
		m.lines[i] = l
		m.words[i] = wordSet(l)
	}
	return m
}

// Load reads one template per line, dropping a leading header line.
func Load(path string) (*Matcher, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open template corpus: %w", err)
	}
	defer f.Close()
	lines, err := readLines(f)
	if err != nil {
		return nil, fmt.Errorf("read template corpus %s: %w", path, err)
	}
	if len(lines) > 0 && strings.HasPrefix(lines[0], headerPrefix) {
		lines = lines[1:]
	}
	return New(lines), nil
}

func readLines(r io.Reader) ([]string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	var lines []string
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines, sc.Err()
}

// Len returns the number of templates.
func (m *Matcher) Len() int { return len(m.lines) }

// TopK returns up to k templates whose word sets have the smallest symmetric
// difference with the query's. Ties keep file order.
func (m *Matcher) TopK(query string, k int) []string {
	if k <= 0 {
		return nil
	}
	q := wordSet(query)
	type pair struct {
		idx  int
		diff int
	}
	scores := make([]pair, len(m.lines))
	for i, w := range m.words {
		scores[i] = pair{i, symmetricDifference(q, w)}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].diff < scores[j].diff })
	if k > len(scores) {
		k = len(scores)
	}
	out := make([]string, k)
	for i := 0; i < k; i++ {
		out[i] = strings.TrimSpace(m.lines[scores[i].idx])
	}
	return out
}

func wordSet(s string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(s))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

func symmetricDifference(a, b map[string]struct{}) int {
	n := 0
	for w := range a {
		if _, ok := b[w]; !ok {
			n++
		}
	}
	for w := range b {
		if _, ok := a[w]; !ok {
			n++
		}
	}
	return n
}
