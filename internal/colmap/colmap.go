// Package colmap loads the column map that describes how each source CSV is
// located and how its obfuscated headers decode into readable column names,
// and materializes the mapped files as frames.
//
// A map document is a JSON (or YAML) object keyed by table identifier:
//
//	{
//	  "USR": {"table": "users", "file": "exports/u.csv", "columns": {"001": "id", "002": "name"}},
//	  "CRD": {"table": "cards", "file": "exports/c.csv", "columns": {"001": "id"}}
//	}
//
// Key order is preserved so tables are processed in document order.
package colmap

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Separator splits a coded column name from its lookup suffix ("X-001" -> "001").
const Separator = "-"

// DefaultExclude lists identifiers of derived tables that are never materialized.
var DefaultExclude = []string{"BLCK", "FRD", "VIP"}

// Entry describes one source file and how to decode it into a table.
type Entry struct {
	ID      string            `json:"-" yaml:"-"`
	Table   string            `json:"table" yaml:"table"`
	File    string            `json:"file" yaml:"file"`
	Columns map[string]string `json:"columns" yaml:"columns"`
}

// Map is the ordered set of entries of a column map document.
type Map []Entry

// Load reads a column map from path. Files ending in .yaml or .yml are parsed
// as YAML, everything else as JSON.
func Load(path string) (Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read column map: %w", err)
	}

	var m Map
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		m, err = parseYAML(data)
	default:
		m, err = parseJSON(data)
	}
	if err != nil {
		return nil, fmt.Errorf("parse column map %s: %w", path, err)
	}

	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("column map %s: %w", path, err)
	}
	return m, nil
}

// parseJSON decodes the top-level object token by token to keep key order.
func parseJSON(data []byte) (Map, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.New("expected a JSON object at top level")
	}

	var m Map
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		id, _ := tok.(string)

		var e Entry
		if err := dec.Decode(&e); err != nil {
			return nil, fmt.Errorf("entry %q: %w", id, err)
		}
		e.ID = id
		m = append(m, e)
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return m, nil
}

func parseYAML(data []byte) (Map, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, errors.New("expected a mapping at top level")
	}

	m := make(Map, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		id := root.Content[i].Value

		var e Entry
		if err := root.Content[i+1].Decode(&e); err != nil {
			return nil, fmt.Errorf("entry %q: %w", id, err)
		}
		e.ID = id
		m = append(m, e)
	}
	return m, nil
}

func (m Map) validate() error {
	var errs []string
	seen := make(map[string]bool, len(m))

	for _, e := range m {
		if seen[e.ID] {
			errs = append(errs, fmt.Sprintf("%s: duplicate identifier", e.ID))
		}
		seen[e.ID] = true

		if strings.TrimSpace(e.Table) == "" {
			errs = append(errs, fmt.Sprintf("%s: table is required", e.ID))
		}
		if strings.TrimSpace(e.File) == "" {
			errs = append(errs, fmt.Sprintf("%s: file is required", e.ID))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid entries:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// DecodeColumn returns the display name for a coded source column: the text
// after the last Separator is looked up in the entry's dictionary. Columns
// without a matching key keep their original name.
func (e Entry) DecodeColumn(col string) string {
	key := col
	if i := strings.LastIndex(col, Separator); i >= 0 {
		key = col[i+len(Separator):]
	}
	if name, ok := e.Columns[key]; ok {
		return name
	}
	return col
}
