package core

import (
	"reflect"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/csvingest/internal/frame"
)

func txnDefinition() TableDefinition {
	return TableDefinition{
		Info: TableInfo{Key: "transactions", FlagName: "flagged_large_txn"},
		FieldSpecs: []FieldSpec{
			{Name: "id", Type: FieldInt},
			{Name: "amount", Type: FieldNumeric},
			{Name: "created_at", Type: FieldTimestamp},
		},
		Build: func(r *Row) any {
			return &Transaction{
				ID:        r.Int("id"),
				Amount:    r.Numeric("amount"),
				CreatedAt: r.Timestamp("created_at"),
			}
		},
	}
}

func TestNormalize_Transactions(t *testing.T) {
	fr := &frame.Frame{
		Name:    "transactions",
		Columns: []string{"id", "amount"},
		Rows: [][]string{
			{"1", "15000"},
			{"2", "9999.99"},
			{"x", "abc"},
			{"4", ""},
			{"5", "10000"},
			{"6", "10000.01"},
		},
	}

	n := Normalize(txnDefinition(), fr, DefaultOptions())

	if len(n.Records) != 6 {
		t.Fatalf("len(Records) = %d, want 6", len(n.Records))
	}
	if !reflect.DeepEqual(n.Flagged, []int{0, 5}) {
		t.Errorf("Flagged = %v, want [0 5]", n.Flagged)
	}
	if !reflect.DeepEqual(n.Missing, []string{"created_at"}) {
		t.Errorf("Missing = %v, want [created_at]", n.Missing)
	}
	if n.Errors["id"] != 1 || n.Errors["amount"] != 1 {
		t.Errorf("Errors = %v, want id=1 amount=1", n.Errors)
	}
	if _, ok := n.Errors["created_at"]; ok {
		t.Error("absent columns should not be counted as coercion failures")
	}

	txns := n.Transactions()
	if len(txns) != 6 {
		t.Fatalf("Transactions() len = %d", len(txns))
	}
	if txns[2].ID.Valid || txns[2].Amount.Valid {
		t.Errorf("row 3 should be NULL, got %+v", txns[2])
	}
	if txns[3].Amount.Valid || txns[3].FlaggedLargeTxn {
		t.Errorf("row 4 empty amount: %+v", txns[3])
	}
	if txns[4].FlaggedLargeTxn {
		t.Error("amount equal to threshold must not be flagged")
	}
	if len(n.Users()) != 0 || len(n.Cards()) != 0 {
		t.Error("typed accessors should filter by record type")
	}
}

func TestNormalize_CustomThreshold(t *testing.T) {
	fr := &frame.Frame{Columns: []string{"id", "amount"}, Rows: [][]string{{"1", "150"}, {"2", "50"}}}
	n := Normalize(txnDefinition(), fr, Options{LargeTxnThreshold: decimal.NewFromInt(100)})

	if !reflect.DeepEqual(n.Flagged, []int{0}) {
		t.Errorf("Flagged = %v, want [0]", n.Flagged)
	}
}

func TestNormalize_EmptyFrame(t *testing.T) {
	n := Normalize(txnDefinition(), &frame.Frame{Columns: []string{"id", "amount", "created_at"}}, DefaultOptions())
	if len(n.Records) != 0 || len(n.Flagged) != 0 || len(n.Missing) != 0 || n.Errors.Total() != 0 {
		t.Errorf("unexpected result for empty frame: %+v", n)
	}
}

func TestNormalized_FlaggedFrame(t *testing.T) {
	fr := &frame.Frame{
		Name:    "transactions",
		Columns: make([]string, 2, 8),
		Rows:    [][]string{{"1", "20000"}, {"2", "5"}},
	}
	copy(fr.Columns, []string{"id", "amount"})

	n := Normalize(txnDefinition(), fr, DefaultOptions())
	flagged := n.FlaggedFrame()

	if !reflect.DeepEqual(flagged.Columns, []string{"id", "amount", "flagged_large_txn"}) {
		t.Errorf("Columns = %v", flagged.Columns)
	}
	if !reflect.DeepEqual(flagged.Rows, [][]string{{"1", "20000", "true"}}) {
		t.Errorf("Rows = %v", flagged.Rows)
	}
	if len(fr.Columns) != 2 || len(fr.Rows[0]) != 2 {
		t.Error("FlaggedFrame must not modify the source frame")
	}
}

func TestCardFlags(t *testing.T) {
	d := func(s string) decimal.NullDecimal {
		return decimal.NullDecimal{Decimal: decimal.RequireFromString(s), Valid: true}
	}
	null := decimal.NullDecimal{}

	tests := []struct {
		name           string
		balance, limit decimal.NullDecimal
		want           bool
	}{
		{"over limit", d("500.01"), d("500"), true},
		{"at limit", d("500"), d("500.00"), false},
		{"under limit", d("10"), d("500"), false},
		{"null balance", null, d("500"), false},
		{"null limit", d("500"), null, false},
		{"negative limit", d("0"), d("-1"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Card{Balance: tt.balance, LimitAmount: tt.limit}
			if got := c.ApplyFlags(DefaultOptions()); got != tt.want {
				t.Errorf("ApplyFlags() = %v, want %v", got, tt.want)
			}
			if c.ExceedsLimit != tt.want {
				t.Errorf("ExceedsLimit = %v, want %v", c.ExceedsLimit, tt.want)
			}
		})
	}
}

func TestRow_Accessors(t *testing.T) {
	specs := MakeSpecIndex([]FieldSpec{
		{Name: "id", Type: FieldInt},
		{Name: "phone_number", Type: FieldText, Fill: Missing},
		{Name: "email", Type: FieldText, Fill: Missing},
		{Name: "is_vip", Type: FieldBool},
		{Name: "created_at", Type: FieldTimestamp},
		{Name: "balance", Type: FieldNumeric},
	})
	idx := MakeHeaderIndex([]string{"id", "phone_number", "email", "is_vip", "created_at"})
	errs := make(ColumnErrors)

	r := NewRow(2, []string{"7", "+12345678901", "bad-email", "maybe", "2024-02-01"}, idx, specs, errs)

	if got := r.Int("id"); !got.Valid || got.Int32 != 7 {
		t.Errorf("Int(id) = %+v", got)
	}
	if got := r.Checked("phone_number", PhonePattern); got != "+12345678901" {
		t.Errorf("Checked(phone) = %q", got)
	}
	if got := r.Checked("email", EmailPattern); got != Missing {
		t.Errorf("Checked(email) = %q, want %q", got, Missing)
	}
	if r.Bool("is_vip") {
		t.Error("Bool(maybe) should be false")
	}
	if got := r.Timestamp("created_at"); !got.Valid {
		t.Error("Timestamp(created_at) should be valid")
	}

	// Declared columns absent from the header read as empty and are not counted.
	if r.Numeric("balance").Valid {
		t.Error("Numeric(balance) should be NULL")
	}

	want := ColumnErrors{"email": 1, "is_vip": 1}
	if !reflect.DeepEqual(errs, want) {
		t.Errorf("errors = %v, want %v", errs, want)
	}
	if errs.Total() != 2 {
		t.Errorf("Total() = %d, want 2", errs.Total())
	}
	if got := errs.String(); got != "email=1, is_vip=1" {
		t.Errorf("String() = %q", got)
	}
}

func TestRow_ShortRow(t *testing.T) {
	specs := MakeSpecIndex([]FieldSpec{{Name: "id", Type: FieldInt}, {Name: "name", Type: FieldText}})
	idx := MakeHeaderIndex([]string{"id", "name"})
	r := NewRow(3, []string{"1"}, idx, specs, nil)

	if r.Text("name").Valid {
		t.Error("Text() beyond row width should be NULL")
	}
	if r.Line != 3 {
		t.Errorf("Line = %d, want 3", r.Line)
	}
}

func TestRow_FieldSpecMismatchPanics(t *testing.T) {
	specs := MakeSpecIndex([]FieldSpec{{Name: "id", Type: FieldInt}})
	idx := MakeHeaderIndex([]string{"id", "name"})

	tests := []struct {
		name string
		read func(r *Row)
	}{
		{"undeclared", func(r *Row) { r.Text("name") }},
		{"mistyped", func(r *Row) { r.Numeric("id") }},
		{"checked non-text", func(r *Row) { r.Checked("id", PhonePattern) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			tt.read(NewRow(2, []string{"1", "x"}, idx, specs, nil))
		})
	}
}

func TestNormalize_UsesSourceLines(t *testing.T) {
	fr := &frame.Frame{
		Columns: []string{"id", "amount"},
		Rows:    [][]string{{"1", "5"}, {"2", "6"}},
		Lines:   []int{4, 9},
	}
	var lines []int
	def := txnDefinition()
	build := def.Build
	def.Build = func(r *Row) any {
		lines = append(lines, r.Line)
		return build(r)
	}

	Normalize(def, fr, DefaultOptions())

	if !reflect.DeepEqual(lines, []int{4, 9}) {
		t.Errorf("lines = %v, want [4 9]", lines)
	}
}

func TestRegistry(t *testing.T) {
	saved := All()
	t.Cleanup(func() {
		Clear()
		for _, def := range saved {
			Register(def)
		}
	})

	Clear()
	Register(txnDefinition())

	if TableCount() != 1 {
		t.Fatalf("TableCount() = %d, want 1", TableCount())
	}
	if _, ok := Get("transactions"); !ok {
		t.Error("Get(transactions) not found")
	}
	if !reflect.DeepEqual(Keys(), []string{"transactions"}) {
		t.Errorf("Keys() = %v", Keys())
	}

	defer func() {
		if recover() == nil {
			t.Error("duplicate Register should panic")
		}
	}()
	Register(txnDefinition())
}

func TestRegister_RejectsBadDefinitions(t *testing.T) {
	saved := All()
	t.Cleanup(func() {
		Clear()
		for _, def := range saved {
			Register(def)
		}
	})

	tests := []struct {
		name   string
		mutate func(def *TableDefinition)
	}{
		{"nil build", func(def *TableDefinition) { def.Build = nil }},
		{"declared but unread", func(def *TableDefinition) {
			def.FieldSpecs = append(def.FieldSpecs, FieldSpec{Name: "note", Type: FieldText})
		}},
		{"read but undeclared", func(def *TableDefinition) {
			def.FieldSpecs = def.FieldSpecs[:2]
		}},
		{"mistyped", func(def *TableDefinition) {
			def.FieldSpecs = []FieldSpec{
				{Name: "id", Type: FieldInt},
				{Name: "amount", Type: FieldText},
				{Name: "created_at", Type: FieldTimestamp},
			}
		}},
		{"duplicate column", func(def *TableDefinition) {
			def.FieldSpecs = append(def.FieldSpecs, FieldSpec{Name: "ID", Type: FieldInt})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Clear()
			def := txnDefinition()
			tt.mutate(&def)

			defer func() {
				if recover() == nil {
					t.Error("Register should panic")
				}
				if TableCount() != 0 {
					t.Errorf("TableCount() = %d, want 0", TableCount())
				}
			}()
			Register(def)
		})
	}
}
