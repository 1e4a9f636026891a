package colmap

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/JonMunkholm/csvingest/internal/frame"
)

// ErrFileNotFound is returned when an entry's source file does not exist.
var ErrFileNotFound = errors.New("source file not found")

// ErrExcluded is returned when materializing an excluded identifier.
var ErrExcluded = errors.New("table identifier is excluded")

// Materializer loads map entries into frames with decoded column names.
type Materializer struct {
	baseDir string
	exclude map[string]bool
}

// NewMaterializer creates a Materializer. Relative entry paths are resolved
// against baseDir ("" means the working directory). Identifiers in exclude
// are refused.
func NewMaterializer(baseDir string, exclude []string) *Materializer {
	ex := make(map[string]bool, len(exclude))
	for _, id := range exclude {
		ex[id] = true
	}
	return &Materializer{baseDir: baseDir, exclude: ex}
}

// Excluded reports whether id is a derived table that must not be loaded.
func (m *Materializer) Excluded(id string) bool {
	return m.exclude[id]
}

// Path returns the resolved source path for an entry.
func (m *Materializer) Path(e Entry) string {
	if m.baseDir == "" || filepath.IsAbs(e.File) {
		return e.File
	}
	return filepath.Join(m.baseDir, e.File)
}

// Materialize reads the entry's CSV and renames its columns via the entry's
// dictionary. The frame is named after the entry's table.
func (m *Materializer) Materialize(e Entry) (*frame.Frame, error) {
	if m.Excluded(e.ID) {
		return nil, fmt.Errorf("%s: %w", e.ID, ErrExcluded)
	}

	path := m.Path(e)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrFileNotFound)
		}
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory: %w", path, ErrFileNotFound)
	}

	fr, err := frame.ReadFile(path)
	if err != nil {
		return nil, err
	}

	fr.Name = e.Table
	fr.Rename(e.DecodeColumn)
	return fr, nil
}
