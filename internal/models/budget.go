package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Budget is the budgets table row.
type Budget struct {
	BudgetID   string          `db:"budget_id"`
	UserID     string          `db:"user_id"`
	AccountID  string          `db:"account_id"`
	CategoryID string          `db:"category_id"` // Nullable
	Period     string          `db:"period"`
	Amount     decimal.Decimal `db:"amount"`
	StartDate  time.Time       `db:"start_date"`
	EndDate    *time.Time      `db:"end_date"` // Nullable
	IsActive   bool            `db:"is_active"`
	AuditFields
}
