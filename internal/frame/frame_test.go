package frame

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRead(t *testing.T) {
	tests := []struct {
		name        string
		input       []byte
		wantColumns []string
		wantRows    [][]string
	}{
		{
			name:        "simple",
			input:       []byte("a,b\n1,2\n3,4\n"),
			wantColumns: []string{"a", "b"},
			wantRows:    [][]string{{"1", "2"}, {"3", "4"}},
		},
		{
			name:        "BOM stripped from first header",
			input:       append([]byte{0xEF, 0xBB, 0xBF}, []byte("id,name\n1,x\n")...),
			wantColumns: []string{"id", "name"},
			wantRows:    [][]string{{"1", "x"}},
		},
		{
			name:        "short row padded",
			input:       []byte("a,b,c\n1\n"),
			wantColumns: []string{"a", "b", "c"},
			wantRows:    [][]string{{"1", "", ""}},
		},
		{
			name:        "long row truncated",
			input:       []byte("a,b\n1,2,3\n"),
			wantColumns: []string{"a", "b"},
			wantRows:    [][]string{{"1", "2"}},
		},
		{
			name:        "blank lines skipped",
			input:       []byte("\na,b\n\n1,2\n,\n"),
			wantColumns: []string{"a", "b"},
			wantRows:    [][]string{{"1", "2"}},
		},
		{
			name:        "header cells trimmed",
			input:       []byte(" a , b\n1,2\n"),
			wantColumns: []string{"a", "b"},
			wantRows:    [][]string{{"1", "2"}},
		},
		{
			name:        "invalid utf8 replaced",
			input:       []byte{'a', '\n', 'x', 0xff, 'y', '\n'},
			wantColumns: []string{"a"},
			wantRows:    [][]string{{"x\uFFFDy"}},
		},
		{
			name:        "header only",
			input:       []byte("a,b\n"),
			wantColumns: []string{"a", "b"},
			wantRows:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fr, err := Read(bytes.NewReader(tt.input))
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if strings.Join(fr.Columns, "|") != strings.Join(tt.wantColumns, "|") {
				t.Errorf("Columns = %q, want %q", fr.Columns, tt.wantColumns)
			}
			if len(fr.Rows) != len(tt.wantRows) {
				t.Fatalf("len(Rows) = %d, want %d", len(fr.Rows), len(tt.wantRows))
			}
			for i := range tt.wantRows {
				if strings.Join(fr.Rows[i], "|") != strings.Join(tt.wantRows[i], "|") {
					t.Errorf("Rows[%d] = %q, want %q", i, fr.Rows[i], tt.wantRows[i])
				}
			}
		})
	}
}

func TestRead_NoHeader(t *testing.T) {
	for _, input := range []string{"", "\n\n", ",,\n"} {
		_, err := Read(strings.NewReader(input))
		if !errors.Is(err, ErrNoHeader) {
			t.Errorf("Read(%q) error = %v, want ErrNoHeader", input, err)
		}
	}
}

func TestReadFile_Missing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.csv"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("ReadFile() error = %v, want os.ErrNotExist", err)
	}
}

func TestRenameAndColumnIndex(t *testing.T) {
	fr := &Frame{Columns: []string{"X-001", "Y-999"}}
	fr.Rename(func(c string) string {
		if c == "X-001" {
			return "amount"
		}
		return c
	})

	if got := fr.ColumnIndex("amount"); got != 0 {
		t.Errorf("ColumnIndex(amount) = %d, want 0", got)
	}
	if got := fr.ColumnIndex("Y-999"); got != 1 {
		t.Errorf("ColumnIndex(Y-999) = %d, want 1", got)
	}
	if got := fr.ColumnIndex("X-001"); got != -1 {
		t.Errorf("ColumnIndex(X-001) = %d, want -1", got)
	}
}

func TestSubset(t *testing.T) {
	fr := &Frame{Name: "cards", Columns: []string{"id"}, Rows: [][]string{{"1"}, {"2"}, {"3"}}}
	sub := fr.Subset([]int{2, 0, 7})

	if sub.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", sub.Len())
	}
	if sub.Rows[0][0] != "3" || sub.Rows[1][0] != "1" {
		t.Errorf("Rows = %v, want [[3] [1]]", sub.Rows)
	}
	if fr.Len() != 3 {
		t.Errorf("source frame modified: Len() = %d", fr.Len())
	}
}

func TestRead_Lines(t *testing.T) {
	input := "\nid,note\n1,a\n\n2,\"two\nlines\"\n3,c\n"
	fr, err := Read(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	want := []int{3, 5, 7}
	if len(fr.Rows) != len(want) {
		t.Fatalf("len(Rows) = %d, want %d", len(fr.Rows), len(want))
	}
	for i, line := range want {
		if got := fr.Line(i); got != line {
			t.Errorf("Line(%d) = %d, want %d", i, got, line)
		}
	}

	sub := fr.Subset([]int{2, 0})
	if sub.Line(0) != 7 || sub.Line(1) != 3 {
		t.Errorf("Subset lines = %v, want [7 3]", sub.Lines)
	}
}

func TestLine_InMemory(t *testing.T) {
	fr := &Frame{Columns: []string{"id"}, Rows: [][]string{{"1"}, {"2"}}}
	if got := fr.Line(1); got != 3 {
		t.Errorf("Line(1) = %d, want 3", got)
	}
}

func TestWriteFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	fr := &Frame{
		Name:    "users",
		Columns: []string{"id", "name"},
		Rows:    [][]string{{"1", "Ann, Jr."}, {"2", "Bo"}},
	}

	path, err := fr.WriteFile(dir)
	if err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if filepath.Base(path) != "users.csv" {
		t.Errorf("path = %q, want users.csv", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "id,name\n1,\"Ann, Jr.\"\n2,Bo\n"
	if string(data) != want {
		t.Errorf("file content = %q, want %q", string(data), want)
	}
}

func TestWriteFile_NoName(t *testing.T) {
	fr := &Frame{Columns: []string{"a"}}
	if _, err := fr.WriteFile(t.TempDir()); err == nil {
		t.Error("WriteFile() expected error for unnamed frame")
	}
}
