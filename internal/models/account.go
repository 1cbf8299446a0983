package models

import (
	"github.com/shopspring/decimal"
)

// Account is the accounts table row.
// Note: ParentAccountID uses string for the nullable foreign key; empty means NULL.
type Account struct {
	AccountID       string          `db:"account_id"`
	UserID          string          `db:"user_id"`
	Code            string          `db:"code"`
	Name            string          `db:"name"`
	AccountType     string          `db:"account_type"`
	NormalBalance   string          `db:"normal_balance"`
	Subtype         string          `db:"subtype"`
	Description     string          `db:"description"`
	ParentAccountID string          `db:"parent_account_id"` // Nullable
	IsActive        bool            `db:"is_active"`
	Balance         decimal.Decimal `db:"balance"` // Persisted account balance
	AuditFields
}
