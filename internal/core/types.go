package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// FieldType represents the expected data type for a decoded column.
type FieldType int

const (
	FieldText FieldType = iota
	FieldInt
	FieldTimestamp
	FieldNumeric
	FieldBool
)

func (t FieldType) String() string {
	switch t {
	case FieldText:
		return "text"
	case FieldInt:
		return "int"
	case FieldTimestamp:
		return "timestamp"
	case FieldNumeric:
		return "numeric"
	case FieldBool:
		return "bool"
	}
	return fmt.Sprintf("FieldType(%d)", int(t))
}

// FieldSpec declares how one decoded column is coerced.
type FieldSpec struct {
	Name string    // Decoded column name (after the column map rename)
	Type FieldType // Accessor Build must use; unparseable values become NULL
	Fill string    // Placeholder returned by Row.Checked for empty or rejected values
}

// SpecIndex maps column names (lowercase) to their declaration.
type SpecIndex map[string]FieldSpec

// MakeSpecIndex indexes specs by lowercase name.
func MakeSpecIndex(specs []FieldSpec) SpecIndex {
	idx := make(SpecIndex, len(specs))
	for _, s := range specs {
		idx[strings.ToLower(s.Name)] = s
	}
	return idx
}

// TableInfo contains display information about a table.
type TableInfo struct {
	Key       string // Table name as it appears in the column map: "cards"
	FlagName  string // Derived flag column, if the table has one: "exceeds_limit"
	FlagLabel string // Report heading for flagged rows: "Cards exceeding limit"
}

// HeaderIndex maps column names (lowercase) to their position in a row.
type HeaderIndex map[string]int

// BuildFunc builds a typed record from a row. Coercion failures are recorded
// on the row, never returned.
type BuildFunc func(r *Row) any

// TableDefinition contains everything needed to normalize a table.
type TableDefinition struct {
	Info       TableInfo
	FieldSpecs []FieldSpec
	Build      BuildFunc
}

// Options carries run-level settings used when deriving flags.
type Options struct {
	LargeTxnThreshold decimal.Decimal
}

// DefaultLargeTxnThreshold is the amount above which a transaction is flagged.
var DefaultLargeTxnThreshold = decimal.NewFromInt(10000)

// DefaultOptions returns Options with the standard threshold.
func DefaultOptions() Options {
	return Options{LargeTxnThreshold: DefaultLargeTxnThreshold}
}

// Flaggable is implemented by records that carry a derived boolean flag.
// ApplyFlags sets the flag on the record and reports its value.
type Flaggable interface {
	ApplyFlags(opts Options) bool
}
