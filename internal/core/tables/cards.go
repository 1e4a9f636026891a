package tables

import "github.com/JonMunkholm/csvingest/internal/core"

func init() {
	core.Register(core.TableDefinition{
		Info: core.TableInfo{
			Key:       "cards",
			FlagName:  "exceeds_limit",
			FlagLabel: "Cards exceeding limit",
		},
		FieldSpecs: []core.FieldSpec{
			{Name: "id", Type: core.FieldInt},
			{Name: "user_id", Type: core.FieldInt},
			{Name: "card_number", Type: core.FieldText},
			{Name: "balance", Type: core.FieldNumeric},
			{Name: "created_at", Type: core.FieldTimestamp},
			{Name: "card_type", Type: core.FieldText},
			{Name: "limit_amount", Type: core.FieldNumeric},
		},
		Build: func(r *core.Row) any {
			return &core.Card{
				Line:        r.Line,
				ID:          r.Int("id"),
				UserID:      r.Int("user_id"),
				CardNumber:  r.Text("card_number"),
				Balance:     r.Numeric("balance"),
				CreatedAt:   r.Timestamp("created_at"),
				CardType:    r.Text("card_type"),
				LimitAmount: r.Numeric("limit_amount"),
			}
		},
	})
}
