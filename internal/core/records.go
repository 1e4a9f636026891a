package core

import (
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// User is a normalized row of the users table.
type User struct {
	Line         int // source line, for load failures
	ID           pgtype.Int4
	Name         pgtype.Text
	PhoneNumber  string
	Email        string
	CreatedAt    pgtype.Timestamp
	LastActiveAt pgtype.Timestamp
	IsVIP        bool
	TotalBalance decimal.NullDecimal
}

// Card is a normalized row of the cards table.
type Card struct {
	Line         int
	ID           pgtype.Int4
	UserID       pgtype.Int4
	CardNumber   pgtype.Text
	Balance      decimal.NullDecimal
	CreatedAt    pgtype.Timestamp
	CardType     pgtype.Text
	LimitAmount  decimal.NullDecimal
	ExceedsLimit bool
}

// ApplyFlags sets ExceedsLimit from the balance and limit.
func (c *Card) ApplyFlags(Options) bool {
	c.ExceedsLimit = ExceedsLimit(c.Balance, c.LimitAmount)
	return c.ExceedsLimit
}

// Transaction is a normalized row of the transactions table.
// Transactions are reported on but never persisted.
type Transaction struct {
	ID              pgtype.Int4
	Amount          decimal.NullDecimal
	CreatedAt       pgtype.Timestamp
	FlaggedLargeTxn bool
}

// ApplyFlags sets FlaggedLargeTxn against the configured threshold.
func (t *Transaction) ApplyFlags(opts Options) bool {
	t.FlaggedLargeTxn = IsLargeTxn(t.Amount, opts.LargeTxnThreshold)
	return t.FlaggedLargeTxn
}

// ExceedsLimit reports whether balance is strictly greater than limit.
// A NULL on either side never exceeds.
func ExceedsLimit(balance, limit decimal.NullDecimal) bool {
	if !balance.Valid || !limit.Valid {
		return false
	}
	return balance.Decimal.GreaterThan(limit.Decimal)
}

// IsLargeTxn reports whether amount is strictly greater than threshold.
func IsLargeTxn(amount decimal.NullDecimal, threshold decimal.Decimal) bool {
	return amount.Valid && amount.Decimal.GreaterThan(threshold)
}
