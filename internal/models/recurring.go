package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Recurring is the recurring table row: a transaction template with a schedule.
type Recurring struct {
	RecurringID string     `db:"recurring_id"`
	UserID      string     `db:"user_id"`
	Name        string     `db:"name"`
	TxnType     string     `db:"txn_type"`
	Description string     `db:"description"`
	Frequency   string     `db:"frequency"`
	Interval    int        `db:"recur_interval"`
	StartDate   time.Time  `db:"start_date"`
	EndDate     *time.Time `db:"end_date"` // Nullable
	NextDate    time.Time  `db:"next_date"`
	LastDate    *time.Time `db:"last_date"`   // Nullable
	CategoryID  string     `db:"category_id"` // Nullable
	IsActive    bool       `db:"is_active"`
	AuditFields
}

// RecurringLine is the recurring_lines table row.
type RecurringLine struct {
	LineID      string          `db:"line_id"`
	RecurringID string          `db:"recurring_id"`
	AccountID   string          `db:"account_id"`
	LineType    string          `db:"line_type"`
	Amount      decimal.Decimal `db:"amount"`
	Description string          `db:"description"`
}
