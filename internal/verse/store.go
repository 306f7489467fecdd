package verse

import (
	"errors"
	"fmt"
	"io"
	"os"

	"translator-notes/internal/domain"
	"translator-notes/internal/tabfile"
)

// Store holds the verse corpus in memory, keyed by reference.
// It is immutable after Load and safe for concurrent lookups.
type Store struct {
	verses map[string]string
	// keys keeps first-insertion order; it decides fuzzy-match ties.
	keys []string
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{verses: make(map[string]string)}
}

// Load reads a two-column TAB separated file of reference and text.
func Load(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open verse corpus: %w", err)
	}
	defer f.Close()
	s := NewStore()
	if err := s.read(f); err != nil {
		return nil, fmt.Errorf("read verse corpus %s: %w", path, err)
	}
	return s, nil
}

func (s *Store) read(r io.Reader) error {
	tr := tabfile.NewReader(r)
	for {
		row, err := tr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("line %d: %w", tr.Line()+1, err)
		}
		if len(row) < 2 {
			continue
		}
		s.Add(domain.VerseEntry{Reference: row[0], Text: row[1]})
	}
}

// Add stores a verse. A repeated reference replaces the earlier text.
func (s *Store) Add(v domain.VerseEntry) {
	if _, ok := s.verses[v.Reference]; !ok {
		s.keys = append(s.keys, v.Reference)
	}
	s.verses[v.Reference] = v.Reference + ": " + v.Text
}

// Len returns the number of distinct references.
func (s *Store) Len() int { return len(s.keys) }

// Lookup returns the formatted "reference: text" string for reference.
// When the reference is unknown the key sharing the most distinct characters
// with it is used instead; the earliest loaded key wins ties.
func (s *Store) Lookup(reference string) string {
	if v, ok := s.verses[reference]; ok {
		return v
	}
	best, ok := s.closest(reference)
	if !ok {
		return reference + ": Verse not found."
	}
	return s.verses[best]
}

func (s *Store) closest(reference string) (string, bool) {
	if len(s.keys) == 0 {
		return "", false
	}
	query := charSet(reference)
	best, bestScore := s.keys[0], -1
	for _, k := range s.keys {
		score := 0
		for r := range charSet(k) {
			if _, ok := query[r]; ok {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = k, score
		}
	}
	return best, true
}

func charSet(s string) map[rune]struct{} {
	m := make(map[rune]struct{}, len(s))
	for _, r := range s {
		m[r] = struct{}{}
	}
	return m
}
