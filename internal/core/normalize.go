package core

import (
	"strings"

	"github.com/JonMunkholm/csvingest/internal/frame"
)

// Normalized is the result of coercing one decoded frame.
type Normalized struct {
	Def     TableDefinition
	Frame   *frame.Frame
	Records []any        // one per frame row, same order
	Missing []string     // declared columns absent from the frame header
	Errors  ColumnErrors // coercion and validation failures per column
	Flagged []int        // row positions whose derived flag is set
}

// Normalize coerces every row of fr with def.Build and applies flags.
// Malformed cells never stop normalization; they become NULL and are counted.
func Normalize(def TableDefinition, fr *frame.Frame, opts Options) *Normalized {
	idx := MakeHeaderIndex(fr.Columns)
	specs := MakeSpecIndex(def.FieldSpecs)
	n := &Normalized{
		Def:     def,
		Frame:   fr,
		Records: make([]any, 0, fr.Len()),
		Errors:  make(ColumnErrors),
	}

	for _, spec := range def.FieldSpecs {
		if _, ok := idx[strings.ToLower(spec.Name)]; !ok {
			n.Missing = append(n.Missing, spec.Name)
		}
	}

	for i, cells := range fr.Rows {
		rec := def.Build(NewRow(fr.Line(i), cells, idx, specs, n.Errors))
		if f, ok := rec.(Flaggable); ok && f.ApplyFlags(opts) {
			n.Flagged = append(n.Flagged, i)
		}
		n.Records = append(n.Records, rec)
	}

	return n
}

// FlaggedFrame returns the subset of the source frame whose rows were flagged,
// with the derived flag appended as a column.
func (n *Normalized) FlaggedFrame() *frame.Frame {
	sub := n.Frame.Subset(n.Flagged)
	if n.Def.Info.FlagName == "" {
		return sub
	}
	// Subset shares backing arrays with the source frame; copy before appending.
	sub.Columns = append(append([]string(nil), sub.Columns...), n.Def.Info.FlagName)
	for i, row := range sub.Rows {
		sub.Rows[i] = append(append([]string(nil), row...), "true")
	}
	return sub
}

// Users returns the normalized user records.
func (n *Normalized) Users() []*User {
	return recordsOf[*User](n)
}

// Cards returns the normalized card records.
func (n *Normalized) Cards() []*Card {
	return recordsOf[*Card](n)
}

// Transactions returns the normalized transaction records.
func (n *Normalized) Transactions() []*Transaction {
	return recordsOf[*Transaction](n)
}

func recordsOf[T any](n *Normalized) []T {
	if n == nil {
		return nil
	}
	out := make([]T, 0, len(n.Records))
	for _, r := range n.Records {
		if v, ok := r.(T); ok {
			out = append(out, v)
		}
	}
	return out
}
