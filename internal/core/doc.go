// Package core provides the normalization rules for decoded CSV tables.
//
// The package is independent of storage and transport. It turns a decoded
// [frame.Frame] into typed records, counting every cell it could not use.
//
// # Table Registry
//
// Tables are registered at init time using [Register]. Each [TableDefinition]
// declares the columns it expects and how a row becomes a record:
//
//	core.Register(core.TableDefinition{
//	    Info: core.TableInfo{Key: "transactions"},
//	    FieldSpecs: []core.FieldSpec{
//	        {Name: "id", Type: core.FieldInt},
//	        {Name: "amount", Type: core.FieldNumeric},
//	    },
//	    Build: func(r *core.Row) any {
//	        return &core.Transaction{ID: r.Int("id"), Amount: r.Numeric("amount")}
//	    },
//	})
//
// # Coercion
//
// [Row] accessors parse cells with the To* converters. Each accessor must
// match the column's declared [FieldType]; [Register] rejects definitions
// whose Build reads a column that is undeclared, mistyped or left unread. Empty cells and null
// tokens ("null", "NaN", "N/A") become NULL silently. Non-empty cells that do
// not parse also become NULL and are added to [ColumnErrors].
//
// Phone numbers and emails that fail [PhonePattern] or [EmailPattern] are
// replaced by the column's Fill, [Missing] for users. The patterns see the
// cell exactly as read.
//
// # Flags
//
// Records implementing [Flaggable] have their derived flag set by [Normalize]:
// cards whose balance exceeds their limit, and transactions above
// [Options.LargeTxnThreshold]. Flagged positions are kept on [Normalized] for
// reporting; records are never dropped.
package core
