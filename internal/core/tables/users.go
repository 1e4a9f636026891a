package tables

import "github.com/JonMunkholm/csvingest/internal/core"

func init() {
	core.Register(core.TableDefinition{
		Info: core.TableInfo{
			Key: "users",
		},
		FieldSpecs: []core.FieldSpec{
			{Name: "id", Type: core.FieldInt},
			{Name: "name", Type: core.FieldText},
			{Name: "phone_number", Type: core.FieldText, Fill: core.Missing},
			{Name: "email", Type: core.FieldText, Fill: core.Missing},
			{Name: "created_at", Type: core.FieldTimestamp},
			{Name: "last_active_at", Type: core.FieldTimestamp},
			{Name: "is_vip", Type: core.FieldBool},
			{Name: "total_balance", Type: core.FieldNumeric},
		},
		Build: func(r *core.Row) any {
			return &core.User{
				Line:         r.Line,
				ID:           r.Int("id"),
				Name:         r.Text("name"),
				PhoneNumber:  r.Checked("phone_number", core.PhonePattern),
				Email:        r.Checked("email", core.EmailPattern),
				CreatedAt:    r.Timestamp("created_at"),
				LastActiveAt: r.Timestamp("last_active_at"),
				IsVIP:        r.Bool("is_vip"),
				TotalBalance: r.Numeric("total_balance"),
			}
		},
	})
}
