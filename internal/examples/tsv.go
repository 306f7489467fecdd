package examples

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/zeebo/blake3"

	"translator-notes/internal/domain"
	"translator-notes/internal/tabfile"
)

// Columns lists the header names every example-note file must carry.
var Columns = []string{"Note", "Reference", "ID", "Tags", "SupportReference", "Quote", "Occurrence"}

// ReadFile parses an example-note file. Document ids are derived from the
// file's location and the 0-based data row (blank lines are not counted), so
// re-reading the same file yields the same ids.
func ReadFile(path string) ([]domain.ExampleDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	defer f.Close()
	docs, err := parse(f, namespace(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return docs, nil
}

func parse(r io.Reader, ns string) ([]domain.ExampleDocument, error) {
	tr := tabfile.NewReader(r)
	header, err := tr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty file", domain.ErrValidation)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.TrimPrefix(strings.TrimSpace(h), "\ufeff")] = i
	}
	var missing []string
	for _, c := range Columns {
		if _, ok := col[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing columns %s", domain.ErrValidation, strings.Join(missing, ", "))
	}
	field := func(row []string, name string) string {
		if i := col[name]; i < len(row) {
			return row[i]
		}
		return ""
	}
	var docs []domain.ExampleDocument
	for {
		row, err := tr.Read()
		if errors.Is(err, io.EOF) {
			return docs, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", domain.ErrValidation, tr.Line()+1, err)
		}
		if tabfile.Blank(row) {
			continue
		}
		docs = append(docs, domain.ExampleDocument{
			ID:   DocumentID(ns, len(docs)),
			Note: field(row, "Note"),
			Metadata: domain.ExampleMetadata{
				Reference:        field(row, "Reference"),
				SourceID:         field(row, "ID"),
				Tags:             field(row, "Tags"),
				SupportReference: field(row, "SupportReference"),
				Quote:            field(row, "Quote"),
				Occurrence:       field(row, "Occurrence"),
			},
		})
	}
}

// DocumentID returns the id of data row i of the file namespace ns.
func DocumentID(ns string, i int) string {
	return ns + "/doc_" + strconv.Itoa(i)
}

// namespace keeps the file stem for readability and adds a digest of the
// absolute path, so same-named files in different folders get distinct ids.
func namespace(path string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}
	sum := blake3.Sum256([]byte(abs))
	return stem + "-" + hex.EncodeToString(sum[:6])
}

// ExpandPaths resolves directories to the .tsv files they contain (sorted)
// and checks that every other path is an existing .tsv file.
func ExpandPaths(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("%w: the path '%s' does not exist", domain.ErrValidation, p)
		}
		if info.IsDir() {
			entries, err := os.ReadDir(p)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
			}
			var found []string
			for _, e := range entries {
				if !e.IsDir() && strings.HasSuffix(e.Name(), ".tsv") {
					found = append(found, filepath.Join(p, e.Name()))
				}
			}
			sort.Strings(found)
			files = append(files, found...)
			continue
		}
		if !strings.HasSuffix(p, ".tsv") {
			return nil, fmt.Errorf("%w: '%s' is not a valid .tsv file or directory", domain.ErrValidation, p)
		}
		files = append(files, p)
	}
	return files, nil
}
