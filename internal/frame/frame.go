// Package frame holds CSV files in memory as a named, ordered set of columns
// and rows, and writes them back out.
//
// Cells stay as strings; typing happens later in core. Reading tolerates the
// usual export artifacts: a UTF-8 BOM, invalid UTF-8, ragged rows and stray
// quotes. Rows are padded or truncated to the header width so every row can
// be indexed by column position.
package frame

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// ErrNoHeader is returned when a CSV source has no header row.
var ErrNoHeader = errors.New("csv has no header row")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Frame is an in-memory table loaded from one CSV file.
type Frame struct {
	Name    string     // Table name, set by the materializer
	Source  string     // File the frame was read from
	Columns []string   // Header, in file order
	Rows    [][]string // Data rows, each len(Columns) wide
	Lines   []int      // Source line of each row; nil for frames built in memory
}

// ReadFile loads a CSV file into a Frame. The first non-blank record is the header.
func ReadFile(path string) (*Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fr, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	fr.Source = path
	return fr, nil
}

// Read parses CSV data from r into a Frame.
func Read(r io.Reader) (*Frame, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	data = bytes.TrimPrefix(data, utf8BOM)
	data = sanitizeUTF8(data)

	records, lines, err := parseCSV(data)
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	fr := &Frame{}
	for i, rec := range records {
		if isEmptyRow(rec) {
			continue
		}
		if fr.Columns == nil {
			fr.Columns = trimAll(rec)
			continue
		}
		fr.Rows = append(fr.Rows, fitRow(rec, len(fr.Columns)))
		fr.Lines = append(fr.Lines, lines[i])
	}

	if fr.Columns == nil {
		return nil, ErrNoHeader
	}
	return fr, nil
}

// Len returns the number of data rows.
func (f *Frame) Len() int {
	return len(f.Rows)
}

// ColumnIndex returns the position of the named column, or -1.
// When names repeat, the first occurrence wins.
func (f *Frame) ColumnIndex(name string) int {
	for i, c := range f.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Line returns the source line of row i. Frames built in memory are taken to
// have the header on line 1 and one line per row after it.
func (f *Frame) Line(i int) int {
	if i >= 0 && i < len(f.Lines) {
		return f.Lines[i]
	}
	return i + 2
}

// Rename replaces every column name with fn(name).
func (f *Frame) Rename(fn func(string) string) {
	for i, c := range f.Columns {
		f.Columns[i] = fn(c)
	}
}

// Subset returns a frame sharing this frame's columns with only the given rows.
// Rows are shared, not copied.
func (f *Frame) Subset(rows []int) *Frame {
	out := &Frame{Name: f.Name, Source: f.Source, Columns: f.Columns}
	out.Rows = make([][]string, 0, len(rows))
	for _, i := range rows {
		if i >= 0 && i < len(f.Rows) {
			out.Rows = append(out.Rows, f.Rows[i])
			if f.Lines != nil {
				out.Lines = append(out.Lines, f.Line(i))
			}
		}
	}
	return out
}

// Write encodes the frame as CSV, header first.
func (f *Frame) Write(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(f.Columns); err != nil {
		return err
	}
	if err := cw.WriteAll(f.Rows); err != nil {
		return err
	}
	return cw.Error()
}

// WriteFile writes the frame to dir/<name>.csv and returns the path.
func (f *Frame) WriteFile(dir string) (string, error) {
	if f.Name == "" {
		return "", errors.New("frame has no name")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(dir, f.Name+".csv")
	out, err := os.Create(path)
	if err != nil {
		return "", err
	}

	if err := f.Write(out); err != nil {
		out.Close()
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		return "", err
	}
	return path, nil
}

// parseCSV returns every record with the line it starts on.
func parseCSV(data []byte) ([][]string, []int, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var records [][]string
	var lines []int
	for {
		rec, err := r.Read()
		if err == io.EOF {
			return records, lines, nil
		}
		if err != nil {
			return nil, nil, err
		}
		line, _ := r.FieldPos(0)
		records = append(records, rec)
		lines = append(lines, line)
	}
}

// sanitizeUTF8 replaces invalid UTF-8 bytes with U+FFFD.
func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune('\uFFFD')
			data = data[1:]
		} else {
			buf.WriteRune(r)
			data = data[size:]
		}
	}

	return buf.Bytes()
}

func fitRow(rec []string, width int) []string {
	if len(rec) == width {
		return rec
	}
	row := make([]string, width)
	copy(row, rec)
	return row
}

func trimAll(rec []string) []string {
	out := make([]string, len(rec))
	for i, v := range rec {
		out[i] = strings.TrimSpace(v)
	}
	return out
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
