// Package tabfile reads TAB separated corpora one record per line.
// Quotes carry no meaning: a field starting with `"` is kept as is.
package tabfile

import (
	"bufio"
	"io"
	"strings"
)

// MaxLine is the longest line accepted.
const MaxLine = 4 * 1024 * 1024

// Reader yields the TAB separated fields of each line. A trailing \r is
// dropped so CRLF files read the same as LF ones.
type Reader struct {
	sc   *bufio.Scanner
	line int
}

func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), MaxLine)
	return &Reader{sc: sc}
}

// Read returns the next record, or io.EOF once input is exhausted.
// Blank lines come back as a single empty field.
func (r *Reader) Read() ([]string, error) {
	if !r.sc.Scan() {
		if err := r.sc.Err(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
	r.line++
	return strings.Split(strings.TrimSuffix(r.sc.Text(), "\r"), "\t"), nil
}

// Line is the 1-based number of the last line returned by Read.
func (r *Reader) Line() int { return r.line }

// Blank reports whether row came from an empty line.
func Blank(row []string) bool {
	return len(row) == 1 && strings.TrimSpace(row[0]) == ""
}
