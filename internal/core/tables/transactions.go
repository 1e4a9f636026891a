package tables

import "github.com/JonMunkholm/csvingest/internal/core"

func init() {
	core.Register(core.TableDefinition{
		Info: core.TableInfo{
			Key:       "transactions",
			FlagName:  "flagged_large_txn",
			FlagLabel: "Flagged transactions",
		},
		FieldSpecs: []core.FieldSpec{
			{Name: "id", Type: core.FieldInt},
			{Name: "amount", Type: core.FieldNumeric},
			{Name: "created_at", Type: core.FieldTimestamp},
		},
		Build: func(r *core.Row) any {
			return &core.Transaction{
				ID:        r.Int("id"),
				Amount:    r.Numeric("amount"),
				CreatedAt: r.Timestamp("created_at"),
			}
		},
	})
}
