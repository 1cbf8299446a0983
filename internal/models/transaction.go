package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is the transactions table row (the header of a posting unit).
type Transaction struct {
	TransactionID string    `db:"transaction_id"`
	UserID        string    `db:"user_id"`
	TxnDate       time.Time `db:"txn_date"`
	TxnType       string    `db:"txn_type"`
	Number        string    `db:"number"`
	Description   string    `db:"description"`
	Reference     string    `db:"reference"`
	Notes         string    `db:"notes"`
	CategoryID    string    `db:"category_id"`  // Nullable
	RecurringID   string    `db:"recurring_id"` // Nullable, set on generated transactions
	IsPosted      bool      `db:"is_posted"`
	AuditFields
}

// TransactionLine is the transaction_lines table row: one debit or credit.
type TransactionLine struct {
	LineID        string          `db:"line_id"`
	TransactionID string          `db:"transaction_id"`
	AccountID     string          `db:"account_id"`
	LineType      string          `db:"line_type"`
	Amount        decimal.Decimal `db:"amount"`
	Description   string          `db:"description"`
	CreatedAt     time.Time       `db:"created_at"`
}
