package core

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// ColumnErrors counts, per column, the non-empty cells that could not be
// coerced or were rejected by a validation rule.
type ColumnErrors map[string]int

// Total returns the number of failures across all columns.
func (c ColumnErrors) Total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}

// String renders the counts sorted by column: "email=2, phone_number=1".
func (c ColumnErrors) String() string {
	cols := make([]string, 0, len(c))
	for col := range c {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	parts := make([]string, len(cols))
	for i, col := range cols {
		parts[i] = fmt.Sprintf("%s=%d", col, c[col])
	}
	return strings.Join(parts, ", ")
}

// Row gives typed, failure-counting access to one row of a frame.
// Columns missing from the header read as empty.
//
// Every accessor checks the column against the table's FieldSpecs: reading
// an undeclared column, or reading it as a type other than the declared one,
// panics. Register runs Build once on an empty row so such mistakes surface
// at init time rather than on real data.
type Row struct {
	Line   int // line of the record in the source file, header is line 1
	cells  []string
	idx    HeaderIndex
	specs  SpecIndex
	errors ColumnErrors
	read   map[string]bool // columns accessed, tracked only by Register
}

// NewRow wraps cells for typed access. Failures are added to errs.
func NewRow(line int, cells []string, idx HeaderIndex, specs SpecIndex, errs ColumnErrors) *Row {
	return &Row{Line: line, cells: cells, idx: idx, specs: specs, errors: errs}
}

// expect returns the declared spec for name, panicking on a mismatch.
func (r *Row) expect(name string, typ FieldType) FieldSpec {
	key := strings.ToLower(name)
	spec, ok := r.specs[key]
	if !ok {
		panic(fmt.Sprintf("core: column %q is read but not declared", name))
	}
	if spec.Type != typ {
		panic(fmt.Sprintf("core: column %q is declared %s but read as %s", name, spec.Type, typ))
	}
	if r.read != nil {
		r.read[key] = true
	}
	return spec
}

// cell returns the named column exactly as read from the file.
func (r *Row) cell(name string) string {
	pos, ok := r.idx[strings.ToLower(name)]
	if !ok || pos >= len(r.cells) {
		return ""
	}
	return r.cells[pos]
}

// raw returns the cleaned cell for the named column.
func (r *Row) raw(name string) string {
	return CleanCell(r.cell(name))
}

func (r *Row) fail(name string) {
	if r.errors != nil {
		r.errors[name]++
	}
}

// Text returns the named column as nullable text.
func (r *Row) Text(name string) pgtype.Text {
	r.expect(name, FieldText)
	return ToPgText(r.raw(name))
}

// Int returns the named column as a nullable integer.
func (r *Row) Int(name string) pgtype.Int4 {
	r.expect(name, FieldInt)
	raw := r.raw(name)
	v := ToPgInt4(raw)
	if !v.Valid && !isNullToken(raw) {
		r.fail(name)
	}
	return v
}

// Timestamp returns the named column as a nullable timestamp.
func (r *Row) Timestamp(name string) pgtype.Timestamp {
	r.expect(name, FieldTimestamp)
	raw := r.raw(name)
	v := ToPgTimestamp(raw)
	if !v.Valid && !isNullToken(raw) {
		r.fail(name)
	}
	return v
}

// Numeric returns the named column as a nullable decimal.
func (r *Row) Numeric(name string) decimal.NullDecimal {
	r.expect(name, FieldNumeric)
	raw := r.raw(name)
	v := ToNumeric(raw)
	if !v.Valid && !isNullToken(raw) {
		r.fail(name)
	}
	return v
}

// Bool returns the named column as a boolean. Empty and unrecognized values
// read as false; unrecognized ones are counted.
func (r *Row) Bool(name string) bool {
	r.expect(name, FieldBool)
	raw := r.raw(name)
	v := ToPgBool(raw)
	if !v.Valid {
		if !isNullToken(raw) {
			r.fail(name)
		}
		return false
	}
	return v.Bool
}

// Checked returns the named column verbatim if it matches re, otherwise the
// column's Fill. The cell is not cleaned first. Rejected values other than
// null tokens are counted.
func (r *Row) Checked(name string, re *regexp.Regexp) string {
	spec := r.expect(name, FieldText)
	cell := r.cell(name)
	if re.MatchString(cell) {
		return cell
	}
	if !isNullToken(CleanCell(cell)) {
		r.fail(name)
	}
	return spec.Fill
}
